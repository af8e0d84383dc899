package gen

import (
	"fmt"
	"strings"
)

// Script is the text buffer an artifact is assembled into. Filter hooks
// receive it to rewrite the text in place. A Script must not be copied
// after first use.
type Script struct {
	b strings.Builder
}

// Write appends p to the script. It never fails.
func (s *Script) Write(p []byte) (int, error) {
	return s.b.Write(p)
}

// WriteString appends str to the script.
func (s *Script) WriteString(str string) (int, error) {
	return s.b.WriteString(str)
}

// Printf appends a formatted string to the script.
func (s *Script) Printf(format string, args ...any) {
	fmt.Fprintf(&s.b, format, args...)
}

// Prepend inserts str at the beginning of the script.
func (s *Script) Prepend(str string) { s.Set(str + s.b.String()) }

// Set replaces the whole script.
func (s *Script) Set(str string) {
	s.b.Reset()
	s.b.WriteString(str)
}

// Replace replaces all occurrences of old with new and reports if any was found.
func (s *Script) Replace(old, new string) bool {
	cur := s.b.String()
	if !strings.Contains(cur, old) {
		return false
	}
	s.Set(strings.ReplaceAll(cur, old, new))
	return true
}

// Len returns the length of the script in bytes.
func (s *Script) Len() int { return s.b.Len() }

func (s *Script) String() string { return s.b.String() }
