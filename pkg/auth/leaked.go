package auth

import (
	"bufio"
	_ "embed"
	"strings"
)

//go:embed leaked_passwords.txt
var leakedPasswordList string

// PasswordDictionary is a static lookup of known-leaked passwords.
type PasswordDictionary interface {
	Contains(password string) bool
}

// LeakedPasswords is an in-memory exact-match set. It is read-only after construction.
type LeakedPasswords struct {
	set map[string]struct{}
}

// NewLeakedPasswords loads the embedded dictionary plus any extra entries.
func NewLeakedPasswords(extra ...string) *LeakedPasswords {
	d := &LeakedPasswords{set: make(map[string]struct{}, 1024)}

	scanner := bufio.NewScanner(strings.NewReader(leakedPasswordList))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d.set[line] = struct{}{}
	}
	for _, p := range extra {
		if p != "" {
			d.set[p] = struct{}{}
		}
	}
	return d
}

// Contains reports an exact match. It is not a strength heuristic.
func (d *LeakedPasswords) Contains(password string) bool {
	_, ok := d.set[password]
	return ok
}

// Len returns the number of entries.
func (d *LeakedPasswords) Len() int {
	return len(d.set)
}
