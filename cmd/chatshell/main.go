// Command chatshell is an interactive chat console for chatopt commands.
//
//	chatshell                         start the console
//	chatshell exec "/f2d -h 2 -w 2 1:4"
//	chatshell complete "/f2d -n Arr"
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dzonerzy/go-chatopt/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err == nil {
		return
	}

	// errors from chat commands were already shown to the sender
	var ee *command.ExitError
	if !errors.As(err, &ee) {
		fmt.Fprintln(os.Stderr, "chatshell:", err)
	}
	stop()
	os.Exit(command.ExitCode(err))
}
