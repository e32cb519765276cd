package chatopt

import (
	"strings"
	"unicode/utf8"
)

// scanner holds the state of a single parse call. Nothing in it is shared
// with the Registry, so concurrent parses never interfere.
type scanner struct {
	reg      *Registry
	tokens   []string
	pos      int
	res      *Result
	tolerant bool
	residual []string
}

// Parse normalizes tokens and scans them strictly: any token that is not a
// registered flag or a flag parameter is an error.
//
// When the help flag is given and everything else parsed cleanly, Parse
// returns ErrHelpRequested and no result.
func (r *Registry) Parse(tokens []string) (*Result, error) {
	s := r.newScanner(Normalize(tokens), false)
	if err := s.run(); err != nil {
		return nil, err
	}
	if r.helpRequested(s.res) {
		return nil, ErrHelpRequested
	}
	return s.res, nil
}

// ParseTolerant normalizes tokens and scans flags until the first
// unrecognized or positional token. That token and everything after it is
// returned verbatim as residual.
func (r *Registry) ParseTolerant(tokens []string) (*Result, []string, error) {
	res, residual, err := r.scanTolerant(Normalize(tokens))
	if err != nil {
		return nil, nil, err
	}
	if r.helpRequested(res) {
		return nil, nil, ErrHelpRequested
	}
	return res, residual, nil
}

// scanTolerant scans already normalized tokens
func (r *Registry) scanTolerant(tokens []string) (*Result, []string, error) {
	s := r.newScanner(tokens, true)
	if err := s.run(); err != nil {
		return nil, nil, err
	}
	return s.res, s.residual, nil
}

func (r *Registry) newScanner(tokens []string, tolerant bool) *scanner {
	return &scanner{
		reg:      r,
		tokens:   tokens,
		res:      newResult(r),
		tolerant: tolerant,
	}
}

func (r *Registry) helpRequested(res *Result) bool {
	return r.help && res.Bool(HelpFlag.dest)
}

func (s *scanner) run() error {
	for s.pos < len(s.tokens) {
		token := s.tokens[s.pos]
		s.pos++

		var err error
		switch {
		case strings.HasPrefix(token, "--"):
			err = s.long(token)
		case strings.HasPrefix(token, "-"):
			// a lone "-" is an empty cluster and consumes nothing
			err = s.shortCluster(token)
		default:
			err = s.positional(token)
		}
		if err != nil {
			return err
		}
		if s.residual != nil {
			return nil
		}
	}
	return nil
}

// bail moves token and every token after it into the residual
func (s *scanner) bail(token string) {
	s.residual = make([]string, 0, 1+len(s.tokens)-s.pos)
	s.residual = append(s.residual, token)
	s.residual = append(s.residual, s.tokens[s.pos:]...)
	s.pos = len(s.tokens)
}

func (s *scanner) positional(token string) error {
	if s.tolerant {
		s.bail(token)
		return nil
	}
	return unexpectedParameter(token)
}

// long handles "--name". Long form parameters are always the next token.
func (s *scanner) long(token string) error {
	name := token[2:]
	spec, ok := s.reg.Lookup(name)
	if !ok {
		if s.tolerant {
			s.bail(token)
			return nil
		}
		return unrecognizedLong(name, s.reg)
	}

	if spec.kind == KindExistence {
		s.res.setExistence(spec.dest)
		return nil
	}

	raw, ok := s.next()
	if !ok {
		return missingParameter(spec, true)
	}
	return s.store(spec, raw)
}

// shortCluster handles "-abc", one rune at a time. A value flag takes the
// rest of the token as its parameter, or the next token when nothing is left.
func (s *scanner) shortCluster(token string) error {
	rest := token[1:]
	for rest != "" {
		c, size := utf8.DecodeRuneInString(rest)
		remainder := rest
		rest = rest[size:]

		spec, ok := s.reg.LookupShort(c)
		if !ok {
			if s.tolerant {
				s.bail("-" + remainder)
				return nil
			}
			return unrecognizedShort(c)
		}

		if spec.kind == KindExistence {
			s.res.setExistence(spec.dest)
			continue
		}

		if rest != "" {
			return s.store(spec, rest)
		}
		raw, ok := s.next()
		if !ok {
			return missingParameter(spec, false)
		}
		return s.store(spec, raw)
	}
	return nil
}

func (s *scanner) next() (string, bool) {
	if s.pos >= len(s.tokens) {
		return "", false
	}
	raw := s.tokens[s.pos]
	s.pos++
	return raw, true
}

func (s *scanner) store(spec FlagSpec, raw string) error {
	v, err := spec.apply(raw)
	if err != nil {
		return transformRejected(spec, raw, err)
	}
	s.res.setValue(spec.dest, raw, v)
	return nil
}
