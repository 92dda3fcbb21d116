package validation

import (
	"errors"
	"strings"
)

// ValidatePassword enforces NIST-style rules: at least 12 characters, no common patterns
func ValidatePassword(password string) error {
	if len(password) < 12 {
		return errors.New("a senha deve ter pelo menos 12 caracteres")
	}

	// bcrypt silently truncates past 72 bytes
	if len(password) > 72 {
		return errors.New("a senha deve ter no máximo 72 caracteres")
	}

	lower := strings.ToLower(password)
	commonPatterns := []string{
		"password", "senha", "123456", "qwerty", "admin", "letmein",
		"welcome", "master", "mudar123", "abcdef",
	}

	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("senha muito comum, escolha uma mais forte")
		}
	}

	return nil
}
