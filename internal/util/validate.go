package util

import (
	"fmt"
	"regexp"
)

// validNameChars matches the characters Docker allows in container names.
var validNameChars = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)

// ValidateContainerName checks a name against Docker's container naming
// rules:
//   - At least 2 characters
//   - Only alphanumeric characters, underscores, periods and hyphens
//   - First character must be alphanumeric
func ValidateContainerName(name string) error {
	if len(name) < 2 {
		return fmt.Errorf("container name must be at least 2 characters, got %d", len(name))
	}

	if !validNameChars.MatchString(name) {
		return fmt.Errorf("container name %q contains invalid characters (only a-z, A-Z, 0-9, underscores, periods and hyphens are allowed)", name)
	}

	if first := name[0]; !isAlphanumeric(first) {
		return fmt.Errorf("container name must start with an alphanumeric character, got %q", string(first))
	}

	return nil
}

func isAlphanumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
