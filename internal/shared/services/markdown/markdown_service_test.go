package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToHTMLSanitized(t *testing.T) {
	svc := NewMarkdownService()

	out, err := svc.ToHTMLSanitized("**Pro** plan\n\n<script>alert(1)</script>")

	require.NoError(t, err)
	assert.Contains(t, out, "<strong>Pro</strong>")
	assert.NotContains(t, out, "<script>")
}

func TestToHTMLSanitized_Empty(t *testing.T) {
	out, err := NewMarkdownService().ToHTMLSanitized("  ")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPlainText(t *testing.T) {
	svc := NewMarkdownService()

	assert.Equal(t, "too expensive", svc.PlainText("  <b>too expensive</b> "))
	assert.Equal(t, "", svc.PlainText("<img src=x onerror=alert(1)>"))
}
