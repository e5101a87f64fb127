package idl

import (
	"fmt"
	"regexp"
	"strings"
)

// SyntaxError reports an invalid interface definition.
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Msg
}

func syntaxErrorf(format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Msg: fmt.Sprintf(format, args...)}
}

var (
	// whitespace or comment runs; comments double as doc strings
	whitespacePattern = regexp.MustCompile(`\A(?:[ \t\n]|#[^\n]*)+`)
	docstringPattern  = regexp.MustCompile(`#([^\n]*)\n`)

	keywordPattern = regexp.MustCompile(`\A(?:[a-z]+\b|[:,(){}]|->|\[\]|\?|\[string\]\(\)|\[string\])`)

	methodSignaturePattern = regexp.MustCompile(`\A(?:[ \t\n]|#[^\n]*)*\(.*?\)(?:[ \t\n]|#[^\n]*)*->(?:[ \t\n]|#[^\n]*)*\(.*?\)`)

	tokenPatterns = map[string]*regexp.Regexp{
		"interface-name": regexp.MustCompile(`\A(?:[A-Za-z][A-Za-z]*(?:\.[A-Za-z0-9](?:-*[A-Za-z0-9])*)+|xn--[0-9a-z]*(?:\.[A-Za-z0-9](?:-*[A-Za-z0-9])*)+)`),
		"member-name":    regexp.MustCompile(`\A[A-Z][A-Za-z0-9]*\b`),
		"identifier":     regexp.MustCompile(`\A[A-Za-z](?:_?[A-Za-z0-9])*\b`),
	}
)

// Scanner tokenizes a varlink interface definition.
type Scanner struct {
	src        string
	pos        int
	currentDoc string
}

func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// skipWhitespace advances over whitespace and comments, collecting the
// comment text as the pending doc string for the next member.
func (s *Scanner) skipWhitespace() {
	loc := whitespacePattern.FindStringIndex(s.src[s.pos:])
	if loc == nil {
		return
	}
	span := s.src[s.pos : s.pos+loc[1]]
	matches := docstringPattern.FindAllStringSubmatch(span, -1)
	if len(matches) > 0 {
		lines := make([]string, 0, len(matches))
		for _, m := range matches {
			lines = append(lines, m[1])
		}
		s.currentDoc += strings.Join(lines, "\n")
	}
	s.pos += loc[1]
}

// Get consumes and returns the expected token if it is next in the
// input. Token classes ("interface-name", "member-name", "identifier")
// return the matched text; any other expected string is matched as a
// literal keyword.
func (s *Scanner) Get(expected string) (string, bool) {
	s.skipWhitespace()

	if pattern, ok := tokenPatterns[expected]; ok {
		if m := pattern.FindString(s.src[s.pos:]); m != "" {
			s.pos += len(m)
			return m, true
		}
		return "", false
	}

	if m := keywordPattern.FindString(s.src[s.pos:]); m != "" && m == expected {
		s.pos += len(m)
		return m, true
	}
	return "", false
}

// Expect is Get, failing with a SyntaxError when the token is missing.
func (s *Scanner) Expect(expected string) (string, error) {
	if value, ok := s.Get(expected); ok {
		return value, nil
	}
	return "", syntaxErrorf("expected '%s'", expected)
}

// End reports whether the whole input has been consumed.
func (s *Scanner) End() bool {
	s.skipWhitespace()
	return s.pos >= len(s.src)
}

// takeDoc returns the pending doc string and resets it.
func (s *Scanner) takeDoc() string {
	doc := s.currentDoc
	s.currentDoc = ""
	return doc
}

// offendingWord extracts the next word of input for error messages.
func (s *Scanner) offendingWord() string {
	s.skipWhitespace()
	rest := s.src[s.pos:]
	if stop := strings.IndexAny(rest, " \t\n#"); stop >= 0 {
		return rest[:stop]
	}
	return rest
}
