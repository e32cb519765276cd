package tileset

import (
	"context"
	"strings"

	"github.com/dzonerzy/go-chatopt/chatopt"
)

// Completer suggests tile-set paths for a pending path flag.
//
// The token is split on "/": everything before the last slash is listed,
// and entries starting with the last segment are offered. Directories end
// in "/" so completion can continue into them. Candidate text is escaped
// and cut after its last space, as the chat client only replaces the text
// after the last space of the buffer.
func Completer(src Source) func(ctx context.Context, sender, token string) ([]chatopt.Candidate, error) {
	return func(ctx context.Context, _ string, token string) ([]chatopt.Candidate, error) {
		parent, trailing := "", token
		if i := strings.LastIndexByte(token, '/'); i >= 0 {
			parent, trailing = token[:i], token[i+1:]
		}

		listing, err := src.List(ctx, parent+"/")
		if err != nil {
			return nil, err
		}

		current := ""
		if parent != "" {
			current = parent + "/"
		}
		base := chatopt.EscapeForCompletion(current)

		var out []chatopt.Candidate
		for _, dir := range listing.Directories {
			if strings.HasPrefix(dir, trailing) {
				out = append(out, chatopt.Candidate{Text: base + chatopt.Escape(dir) + "/", Tooltip: "subdirectory"})
			}
		}
		for _, set := range listing.TileSets {
			if strings.HasPrefix(set, trailing) {
				out = append(out, chatopt.Candidate{Text: base + chatopt.Escape(set), Tooltip: "tile set"})
			}
		}
		return out, nil
	}
}
