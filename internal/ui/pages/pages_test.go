package pages

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/repository"
	"github.com/leadflow/leadflow/internal/service"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()

	now := time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)
	ctx := ctxkeys.WithNow(context.Background(), func() time.Time { return now })
	ctx = ctxkeys.WithCSRFToken(ctx, "csrf-123")

	var b strings.Builder
	require.NoError(t, c.Render(ctx, &b))
	return b.String()
}

func TestLoginEscapesUserInput(t *testing.T) {
	body := render(t, Login(LoginView{Email: `"><script>alert(1)</script>`, Unverified: true}))

	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Contains(t, body, `name="csrf_token" value="csrf-123"`)
	assert.Contains(t, body, "Reenviar e-mail de confirmação")
}

func TestFormField(t *testing.T) {
	t.Run("input", func(t *testing.T) {
		body := render(t, formField(field{
			Label:    "Senha",
			Name:     "password",
			Type:     "password",
			Required: true,
			Attrs:    templ.Attributes{"minlength": "12"},
		}))

		assert.Contains(t, body, `<input type="password"`)
		assert.Contains(t, body, ` required`)
		assert.Contains(t, body, `minlength="12"`)
		assert.NotContains(t, body, "placeholder")
	})

	t.Run("defaults to text", func(t *testing.T) {
		body := render(t, formField(field{Label: "Nome", Name: "name"}))
		assert.Contains(t, body, `<input type="text"`)
		assert.NotContains(t, body, "required")
	})

	t.Run("textarea", func(t *testing.T) {
		body := render(t, formField(field{Label: "Descrição", Name: "details", Type: "textarea", Value: "a < b"}))
		assert.Contains(t, body, `>a &lt; b</textarea>`)
		assert.NotContains(t, body, "<input")
	})
}

func TestLeadForm(t *testing.T) {
	body := render(t, LeadForm(LeadFormView{}))
	assert.Contains(t, body, "Adicionar Novo Lead")
	assert.Contains(t, body, `hx-post="/leads"`)
	assert.Contains(t, body, `<option value="new" selected>`)

	body = render(t, LeadForm(LeadFormView{
		LeadID:   7,
		LeadName: "Ana",
		Input:    service.LeadInput{Name: "Ana", Status: string(model.LeadStatusWon)},
	}))
	assert.Contains(t, body, "Editar Lead: Ana")
	assert.Contains(t, body, `hx-put="/leads/7"`)
	assert.Contains(t, body, `<option value="won" selected>`)
	assert.NotContains(t, body, `<option value="new" selected>`)
}

func TestInteractionItemRendersMarkdown(t *testing.T) {
	edited := time.Date(2025, time.March, 6, 15, 30, 0, 0, time.UTC)
	body := render(t, InteractionItem(&model.Interaction{
		ID:        3,
		Message:   "**ligar** <b>amanhã</b>",
		CreatedAt: edited.Add(-time.Hour),
		UpdatedAt: &edited,
	}))

	assert.Contains(t, body, "<strong>ligar</strong>")
	assert.Contains(t, body, "&lt;b&gt;amanhã&lt;/b&gt;")
	assert.Contains(t, body, "Última edição:")
	assert.Contains(t, body, `hx-delete="/interactions/3"`)
}

func TestTodayPanelEmpty(t *testing.T) {
	body := render(t, TodayPanel(nil))
	assert.Contains(t, body, `id="today-panel"`)
	assert.Contains(t, body, "Nenhuma tarefa pendente para hoje.")
	assert.NotContains(t, body, "<ul")
}

func TestLeadsContentSortHeaders(t *testing.T) {
	body := render(t, LeadsContent(LeadsView{SortBy: repository.LeadSortName}))

	assert.Contains(t, body, "Nome ↑")
	assert.Contains(t, body, "Empresa ↕")
	assert.Contains(t, body, `hx-get="/leads?desc=1&amp;sort=lead_name"`)
	assert.Contains(t, body, "Nenhum lead encontrado.")
	assert.Contains(t, body, `colspan="6"`)
}

func TestLeadsContentOverdueChip(t *testing.T) {
	body := render(t, LeadsContent(LeadsView{OverdueOnly: true, Search: "ana"}))

	assert.Contains(t, body, "Exibindo apenas follow-ups vencidos")
	assert.Contains(t, body, `<option value="overdue" selected>`)
	assert.Contains(t, body, `hx-get="/leads?search=ana"`)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "abcd…wxyz", maskToken("abcdefghijklmnopqrstuvwxyz"))
	assert.Equal(t, "short", maskToken("short"))
}
