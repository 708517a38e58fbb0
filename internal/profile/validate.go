package profile

import "fmt"

// MaxNameLen bounds a profile name, which is also a directory name.
const MaxNameLen = 64

// NameError explains why a profile name was rejected.
type NameError struct {
	Name   string
	Reason string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid profile name %q: %s", e.Name, e.Reason)
}

// ValidateName accepts lowercase letters, digits, '_' and '-', up to
// MaxNameLen bytes. A leading '-' is refused so the name never reads as a flag.
func ValidateName(name string) error {
	switch {
	case name == "":
		return &NameError{Name: name, Reason: "name is empty"}
	case len(name) > MaxNameLen:
		return &NameError{Name: name, Reason: fmt.Sprintf("longer than %d characters", MaxNameLen)}
	case name[0] == '-':
		return &NameError{Name: name, Reason: "must not start with '-'"}
	}
	for i, r := range name {
		if !nameRune(r) {
			return &NameError{Name: name, Reason: fmt.Sprintf("character %q at %d; use a-z, 0-9, '_' or '-'", r, i)}
		}
	}
	return nil
}

func nameRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-'
}
