package chatopt

import (
	"errors"
	"sort"
	"strings"
)

// Candidate is a single completion suggestion
type Candidate struct {
	Text    string
	Tooltip string
}

// Completion is the outcome of completing a partial command line.
//
// Exactly one of Candidates and Pending is meaningful: when Pending is set a
// value flag is waiting for its parameter, and the caller should complete
// values for it (paths, ids, ...) rather than flag names.
type Completion struct {
	Token      string // text under completion
	Candidates []Candidate
	Pending    *FlagSpec
}

// Complete suggests flag names for a partial command line.
//
// tokens are the arguments after the command name, already split by Tokenize
// and without the trailing empty token. lastComplete reports whether that
// trailing empty token was present, i.e. the last argument was terminated by
// a space.
func (r *Registry) Complete(tokens []string, lastComplete bool) Completion {
	var c Completion

	scan := tokens
	if !lastComplete && len(tokens) > 0 {
		scan = tokens[:len(tokens)-1]
		c.Token = tokens[len(tokens)-1]
	}

	res, residual, err := r.scanTolerant(scan)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) && pe.Type == ErrorTypeMissingParameter {
			c.Pending = pe.Flag
		}
		return c
	}
	if r.helpRequested(res) {
		return c
	}
	if lastComplete && len(residual) > 0 {
		c.Token = residual[0]
	}

	c.Candidates = r.candidates(c.Token)
	return c
}

func (r *Registry) candidates(prefix string) []Candidate {
	seen := make(map[string]struct{}, len(r.specs)*2)
	out := make([]Candidate, 0, len(r.specs))
	add := func(text string, spec FlagSpec) {
		if !strings.HasPrefix(text, prefix) {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		out = append(out, Candidate{Text: text, Tooltip: spec.usage})
	}

	for _, spec := range r.specs {
		add("--"+spec.long, spec)
		if spec.short != 0 {
			add("-"+string(spec.short), spec)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Text < out[j].Text })
	return out
}

// Texts returns the candidate texts in order
func (c Completion) Texts() []string {
	out := make([]string, len(c.Candidates))
	for i, cand := range c.Candidates {
		out[i] = cand.Text
	}
	return out
}
