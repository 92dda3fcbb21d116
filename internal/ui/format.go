package ui

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.BrazilianPortuguese)

// Money formats a value as Brazilian reais, e.g. "R$ 1.999,99".
func Money(value float64) string {
	return printer.Sprintf("R$ %v", number.Decimal(value, number.Scale(2)))
}

// Number formats an integer with pt-BR digit grouping.
func Number(n int) string {
	return printer.Sprintf("%v", number.Decimal(n))
}

// MoneyInput formats a value for the lead form's value field ("1.999,99").
func MoneyInput(value float64) string {
	if value == 0 {
		return ""
	}
	return printer.Sprintf("%v", number.Decimal(value, number.Scale(2)))
}

// Date formats a calendar date as dd/mm/yyyy. Follow-up dates are stored as
// UTC midnight, so the date is read without timezone conversion.
func Date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// DateInput formats a date for <input type="date">.
func DateInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// DateTime formats a timestamp in loc as "dd/mm/yyyy às hh:mm".
func DateTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006 às 15:04")
}

// Ago describes how long before now t was, in pt-BR ("há 3 dias").
func Ago(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "há menos de um minuto"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minuto", "minutos")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hora", "horas")
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "dia", "dias")
	case d < 365*24*time.Hour:
		return plural(int(d/(30*24*time.Hour)), "mês", "meses")
	default:
		return plural(int(d/(365*24*time.Hour)), "ano", "anos")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "há 1 " + one
	}
	return printer.Sprintf("há %d %s", n, many)
}
