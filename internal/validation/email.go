package validation

import (
	"errors"
	"net/mail"
)

// ValidateEmail validates email format and length (RFC 5322 via net/mail)
func ValidateEmail(email string) error {
	// RFC 5321: total max 254 with @
	if len(email) > 254 {
		return errors.New("email muito longo (máximo de 254 caracteres)")
	}

	if email == "" {
		return errors.New("email é obrigatório")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("formato de email inválido")
	}

	return nil
}
