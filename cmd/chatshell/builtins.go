package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dzonerzy/go-chatopt/chatio"
	"github.com/dzonerzy/go-chatopt/chatopt"
	"github.com/dzonerzy/go-chatopt/command"
	"github.com/dzonerzy/go-chatopt/idrange"
	"github.com/dzonerzy/go-chatopt/middleware"
	"github.com/dzonerzy/go-chatopt/tileset"
)

func (s *shell) builtins() []*command.Command {
	return []*command.Command{
		command.New("f2d", "Place maps onto a rectangle of frames, row by row").
			Usage("/f2d [-h rows] [-w columns] [-n tileset | id ...]").
			Flags(
				chatopt.Param("height").Short('h').Transform(chatopt.Uint).Usage("rows"),
				chatopt.Param("width").Short('w').Transform(chatopt.Uint).Usage("columns"),
				chatopt.Param("name").Short('n').Usage("tile set path"),
			).
			Tolerant().
			CompleteValue("name", tileset.Completer(s.tiles)).
			Action(s.frame2d).
			MustBuild(),

		command.New("protect", "Toggle protection of the frame under the cursor").
			Usage("/protect [-1|-0] [-w]").
			Flags(
				chatopt.Switch("on").Short('1').Usage("protect"),
				chatopt.Switch("off").Short('0').Usage("unprotect"),
				chatopt.Switch("use-we").Short('w').Usage("act on the whole wall"),
			).
			Use(middleware.Validate(middleware.Exclusive("on", "off"))).
			Action(s.protect).
			MustBuild(),

		command.New("parse", "Show how a command line parses").
			Usage("/parse <command> [args ...]").
			Tolerant().
			Action(s.parse).
			MustBuild(),

		command.New("help", "List commands").
			Alias("?").
			Action(s.help).
			MustBuild(),
	}
}

func (s *shell) frame2d(inv *command.Invocation) error {
	flags := inv.Flags()
	height, width := 1, 1
	if h, ok := flags.Uint("height"); ok {
		height = int(h)
	}
	if w, ok := flags.Uint("width"); ok {
		width = int(w)
	}

	var ids []int
	if name, ok := flags.String("name"); ok {
		if s.client.Endpoint() == "" {
			return tileset.ErrNoEndpoint
		}
		meta, cached := s.tiles.Cached(name)
		if !cached {
			inv.Warning("Retrieving tileset metadata for %s", name)
			s.tiles.Prefetch(s.ctx, name, func(_ *tileset.Metadata, err error) {
				if err != nil {
					inv.Reply(chatio.LevelError, "%v", err)
					return
				}
				inv.Success("Metadata for tileset %s downloaded. Please try again.", tileset.NormalizePath(name))
			})
			return nil
		}

		var err error
		if ids, width, height, err = tileset.Tiles(meta); err != nil {
			return err
		}
		inv.Success("Using tileset %s with %d rows %d columns", name, height, width)
	} else {
		var err error
		if ids, err = idrange.ParseAll(inv.Args()); err != nil {
			return err
		}
	}

	frames := width * height
	switch {
	case frames == 0:
		return errors.New("the wall needs at least one frame")
	case frames < len(ids):
		return fmt.Errorf("not enough item frames on the wall: need %d frames, found %d frames", len(ids), frames)
	case frames > len(ids):
		return fmt.Errorf("not enough map IDs given on command line: need %d IDs, found %d IDs", frames, len(ids))
	}

	wall := make([]frame, frames)
	rows := make([][]string, height)
	for i, id := range ids {
		wall[i] = frame{MapID: id}
		rows[i/width] = append(rows[i/width], strconv.Itoa(id))
	}
	s.walls.Set(inv.Sender(), wall)

	inv.Info("%s", strings.TrimRight(chatio.Columns(rows), "\n"))
	inv.Success("Placed %d maps on a %dx%d wall.", frames, height, width)
	return nil
}

func (s *shell) protect(inv *command.Invocation) error {
	flags := inv.Flags()
	useWall := flags.Bool("use-we")

	var changed int
	var found bool
	s.walls.Update(inv.Sender(), func(wall []frame, present bool) []frame {
		if !present || len(wall) == 0 {
			return wall
		}
		found = true
		targets := wall[:1]
		if useWall {
			targets = wall
		}
		for i := range targets {
			desired := !targets[i].Protected
			switch {
			case flags.Bool("on"):
				desired = true
			case flags.Bool("off"):
				desired = false
			}
			if desired != targets[i].Protected {
				targets[i].Protected = desired
				changed++
			}
		}
		return wall
	})

	if !found {
		if useWall {
			inv.Warning("Can't find an item frame on your wall")
		} else {
			inv.Warning("Can't find an item frame where you are looking at")
		}
		return nil
	}
	if changed == 0 {
		inv.Success("No changes needed.")
		return nil
	}

	verb := "Toggled protection for"
	switch {
	case flags.Bool("on"):
		verb = "Protected"
	case flags.Bool("off"):
		verb = "Removed protection for"
	}
	inv.Success("%s %d frames.", verb, changed)
	return nil
}

func (s *shell) parse(inv *command.Invocation) error {
	args := inv.Args()
	if len(args) == 0 {
		return &middleware.ValidationError{Field: "args", Message: "which command?"}
	}
	name := strings.TrimLeft(args[0], "/")
	cmd, ok := s.disp.Lookup(name)
	if !ok {
		return &command.UnknownCommandError{Name: name}
	}

	res, residual, err := cmd.Parse(args[1:])
	if errors.Is(err, chatopt.ErrHelpRequested) {
		inv.Info("/%s would print its usage", cmd.Name())
		return nil
	}
	if err != nil {
		return err
	}
	inv.Info("%s", describe(res, residual))
	return nil
}

// describe renders a parse result as aligned key, kind, value rows
func describe(res *chatopt.Result, residual []string) string {
	rows := [][]string{}
	for _, key := range res.Keys() {
		v, _ := res.Value(key)
		val := v.Raw()
		if v.Kind() == chatopt.KindExistence {
			val = strconv.FormatBool(v.Bool())
		} else if x := v.Any(); x != nil {
			val = fmt.Sprint(x)
		}
		rows = append(rows, []string{key, v.Kind().String(), val})
	}
	if len(residual) > 0 {
		rows = append(rows, []string{"args", "residual", strings.Join(residual, ", ")})
	}
	return strings.TrimRight(chatio.Columns(rows), "\n")
}

func (s *shell) help(inv *command.Invocation) error {
	var rows [][]string
	for _, cmd := range s.disp.Commands() {
		rows = append(rows, []string{cmd.Usage(), cmd.Description()})
	}
	inv.Info("%s", strings.TrimRight(chatio.Columns(rows), "\n"))
	return nil
}

// echo is the action of config-declared commands: it reports what was parsed
func (s *shell) echo(inv *command.Invocation) error {
	inv.Success("/%s %s", inv.Command().Name(), strings.ReplaceAll(describe(inv.Flags(), inv.Args()), "\n", "; "))
	return nil
}
