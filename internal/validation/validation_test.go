package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"", 0},
		{"1.999,99", 1999.99},
		{"R$ 250", 250},
		{"R$ 1.500", 1500},
		{"1999.99", 1999.99},
		{"1.500.000", 1500000},
		{"0,5", 0.5},
		{"12.5", 12.5},
		{"0.125", 0.125},
		{"0.500", 0.5},
		{"10.250", 10250},
		{"1234.567", 1234.567},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMoney(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestParseMoneyRejects(t *testing.T) {
	_, err := ParseMoney("abc")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseMoney("-10")
	assert.ErrorIs(t, err, ErrNegativeValue)

	_, err = ParseMoney("NaN")
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = ParseMoney("1.2.3")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ana@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("ana"))
	assert.Error(t, ValidateEmail("Ana <ana@example.com>"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@x.com"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("João"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("é", 101)))
	assert.NoError(t, ValidateName(strings.Repeat("é", 100)))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("cavalo-bateria-grampo"))
	assert.Error(t, ValidatePassword("curta"))
	assert.Error(t, ValidatePassword("minhasenha-secreta"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("attachment", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	_, header, err := req.FormFile("attachment")
	require.NoError(t, err)
	return header
}

func TestValidateFile(t *testing.T) {
	pdf := []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")

	assert.NoError(t, ValidateFile(fileHeader(t, "proposta.pdf", pdf), DocumentConstraints))
	assert.Error(t, ValidateFile(fileHeader(t, "proposta.txt", pdf), DocumentConstraints))
	assert.Error(t, ValidateFile(fileHeader(t, "proposta.pdf", []byte("just text")), DocumentConstraints))
	assert.Error(t, ValidateFile(fileHeader(t, "proposta.pdf", pdf)))
}
