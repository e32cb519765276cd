package chatopt

import (
	"strings"

	"github.com/dzonerzy/go-chatopt/internal/pool"
)

// Normalize resolves trailing backslash continuations.
//
// Tokens without trailing backslashes are kept as they are. A token ending
// in an odd run of backslashes had its separating space escaped: the pairs
// collapse to single backslashes, the lone one becomes a space and the next
// token is joined on. An even run collapses the same way but terminates the
// token.
//
//	["arg1\\", "arg2"] -> ["arg1 arg2"]
//	["arg1\\\\"]       -> ["arg1\\"]
func Normalize(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}

	out := make([]string, 0, len(tokens))
	buf := pool.GetBuffer(64)
	defer pool.PutBuffer(buf)
	joining := false

	for _, token := range tokens {
		n := trailingBackslashes(token)
		unescaped := token
		if n > 0 {
			unescaped = strings.ReplaceAll(token, `\\`, `\`)
		}

		if n%2 == 0 {
			if !joining {
				out = append(out, unescaped)
				continue
			}
			*buf = append(*buf, unescaped...)
			out = append(out, string(*buf))
			*buf = (*buf)[:0]
			joining = false
			continue
		}

		// odd run: the remaining lone backslash is the escaped separator
		*buf = append(*buf, unescaped[:len(unescaped)-1]...)
		*buf = append(*buf, ' ')
		joining = true
	}

	if joining {
		out = append(out, string(*buf))
	}
	return out
}

// Tokenize splits a raw chat line on single spaces and normalizes the result.
// A line ending in an unescaped space keeps its trailing empty token, which
// marks the last argument as complete.
func Tokenize(line string) []string {
	if line == "" {
		return nil
	}
	return Normalize(strings.Split(line, " "))
}

// Escape is the inverse of Normalize for a single token: Tokenize on the
// escaped text yields s again. Spaces become "\ "; backslashes are doubled
// only where Normalize would collapse them.
func Escape(s string) string {
	if !strings.ContainsAny(s, " \\") {
		return s
	}
	parts := strings.Split(s, " ")
	var b strings.Builder
	b.Grow(len(s) + 2*len(parts))
	for i, part := range parts {
		last := i == len(parts)-1
		if !last || strings.HasSuffix(part, `\`) {
			part = strings.ReplaceAll(part, `\`, `\\`)
		}
		b.WriteString(part)
		if !last {
			b.WriteString(`\ `)
		}
	}
	return b.String()
}

// EscapeForCompletion escapes s and keeps only the text after the last
// escaped space. Chat clients replace only the text after the last space of
// the input buffer, so "Arrival Boards/LBlue" completes as "Boards/LBlue".
func EscapeForCompletion(s string) string {
	escaped := Escape(s)
	if i := strings.LastIndexByte(escaped, ' '); i >= 0 {
		return escaped[i+1:]
	}
	return escaped
}

func trailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}
