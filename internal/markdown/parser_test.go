package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTML(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "emphasis",
			source:   "Cliente pediu **desconto**",
			contains: []string{"<strong>desconto</strong>"},
		},
		{
			name:     "gfm task list",
			source:   "- [x] ligar\n- [ ] enviar contrato",
			contains: []string{`type="checkbox"`, "enviar contrato"},
		},
		{
			name:     "hard wraps",
			source:   "linha um\nlinha dois",
			contains: []string{"<br />"},
		},
		{
			name:     "inline html is escaped",
			source:   "oi <b>negrito</b>",
			contains: []string{"&lt;b&gt;negrito&lt;/b&gt;"},
			excludes: []string{"<b>"},
		},
		{
			name:     "html block is escaped",
			source:   "<script>alert(1)</script>",
			contains: []string{"&lt;script&gt;"},
			excludes: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := p.HTML(tt.source)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}
