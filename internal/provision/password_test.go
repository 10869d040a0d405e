package provision

import (
	"regexp"
	"testing"
)

func TestNewRandomPassword(t *testing.T) {
	alphanumeric := regexp.MustCompile(`^[a-zA-Z0-9]+$`)

	for range 100 {
		password := newRandomPassword()
		if len(password) < 10 || len(password) > 15 {
			t.Fatalf("password length %d outside [10,15]: %s", len(password), password)
		}
		if !alphanumeric.MatchString(password) {
			t.Fatalf("password contains non-alphanumeric characters: %s", password)
		}
	}
}
