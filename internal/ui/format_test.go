package ui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "R$ 1.999,99", Money(1999.99))
	assert.Equal(t, "R$ 0,00", Money(0))
	assert.Equal(t, "R$ 1.500.000,00", Money(1_500_000))
}

func TestMoneyInput(t *testing.T) {
	assert.Equal(t, "", MoneyInput(0))
	assert.Equal(t, "1.999,99", MoneyInput(1999.99))
}

func TestDates(t *testing.T) {
	assert.Empty(t, Date(nil))
	assert.Empty(t, DateInput(nil))

	followUp := time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2025", Date(&followUp))
	assert.Equal(t, "2025-03-07", DateInput(&followUp))
}

func TestDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	ts := time.Date(2025, time.March, 12, 13, 30, 0, 0, time.UTC)
	assert.Equal(t, "12/03/2025 às 10:30", DateTime(ts, loc))
	assert.Equal(t, "12/03/2025 às 13:30", DateTime(ts, nil))
}

func TestAgo(t *testing.T) {
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "há menos de um minuto"},
		{time.Minute, "há 1 minuto"},
		{5 * time.Hour, "há 5 horas"},
		{24 * time.Hour, "há 1 dia"},
		{3 * 24 * time.Hour, "há 3 dias"},
		{65 * 24 * time.Hour, "há 2 meses"},
		{400 * 24 * time.Hour, "há 1 ano"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Ago(now.Add(-tt.ago), now))
		})
	}
}
