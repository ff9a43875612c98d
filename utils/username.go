package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)
	reservedNames   = []string{"admin", "root", "api", "www", "mail", "ftp", "test", "demo", "user", "guest", "null", "undefined", "me"}
)

// ValidateUsernamePattern validates username format and constraints
func ValidateUsernamePattern(username string) error {
	trimmedUsername := strings.TrimSpace(username)

	if len(trimmedUsername) < 3 {
		return fmt.Errorf("username must be at least 3 characters long")
	}

	if len(trimmedUsername) > 20 {
		return fmt.Errorf("username must be no more than 20 characters long")
	}

	if !usernamePattern.MatchString(trimmedUsername) {
		if !strings.ContainsAny(trimmedUsername[:1], "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ") {
			return fmt.Errorf("username must start with a letter")
		}
		return fmt.Errorf("username can only contain letters, numbers, and underscores")
	}

	for _, reservedWord := range reservedNames {
		if strings.ToLower(trimmedUsername) == reservedWord {
			return fmt.Errorf("this username is reserved and cannot be used")
		}
	}

	return nil
}
