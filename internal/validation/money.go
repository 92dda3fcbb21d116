package validation

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidValue  = errors.New("valor inválido")
	ErrNegativeValue = errors.New("o valor não pode ser negativo")
)

var thousandsGrouped = regexp.MustCompile(`^-?[1-9][0-9]{0,2}(\.[0-9]{3})+$`)

// ParseMoney reads a monetary amount typed in pt-BR ("1.999,99", "R$ 250") or
// plain decimal ("1999.99"). Empty input is zero. Dots that split the number
// into groups of three after a non-zero lead group are thousands separators.
func ParseMoney(input string) (float64, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, nil
	}

	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else if thousandsGrouped.MatchString(s) {
		// "1.500" and "1.500.000" use dots as thousands separators; "0.125" does not
		s = strings.ReplaceAll(s, ".", "")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidValue
	}

	return value, ValidateValue(value)
}

func ValidateValue(value float64) error {
	if value < 0 {
		return ErrNegativeValue
	}
	return nil
}
