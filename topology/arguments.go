// Package topology builds the command line arguments of the mongod and mongos
// processes of a node from its role and security posture.
//
// The builders are pure functions of their input and safe for concurrent use.
package topology

import "strings"

// Arguments is an ordered list of command line tokens.
type Arguments []string

// String joins the tokens with single spaces and terminates them with a newline
// token, the format the process manager passes to the process verbatim.
func (a Arguments) String() string {
	tokens := make([]string, 0, len(a)+1)
	tokens = append(tokens, a...)
	tokens = append(tokens, "\n")
	return strings.Join(tokens, " ")
}

func (a Arguments) Contains(token string) bool {
	for _, t := range a {
		if t == token {
			return true
		}
	}
	return false
}

// Count returns how many tokens start with prefix.
func (a Arguments) Count(prefix string) (n int) {
	for _, t := range a {
		if strings.HasPrefix(t, prefix) {
			n++
		}
	}
	return
}
