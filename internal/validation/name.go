package validation

import (
	"errors"
	"strings"
)

// ValidateName validates a person's or lead's display name
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("nome é obrigatório")
	}

	if len([]rune(trimmed)) > 100 {
		return errors.New("nome muito longo (máximo de 100 caracteres)")
	}

	return nil
}
