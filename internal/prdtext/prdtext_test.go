package prdtext

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePlainTextCompactsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prd.md")
	require.NoError(t, os.WriteFile(path, []byte("#  Title\n\n\n  Add   MFA\t to login.\r\n"), 0o644))
	out, err := Normalize(path)
	require.NoError(t, err)
	assert.Equal(t, "# Title\nAdd MFA to login.", out)
}

func TestNormalizeHTMLStripsMarkup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prd.html")
	doc := `<html><head><style>body{color:red}</style><script>alert(1)</script></head>
<body><h1>Login changes</h1><p>Add MFA.</p><p>Keep sessions.</p></body></html>`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	out, err := Normalize(path)
	require.NoError(t, err)
	assert.Contains(t, out, "Login changes")
	assert.Contains(t, out, "Add MFA.")
	assert.NotContains(t, out, "alert(1)")
	assert.NotContains(t, out, "color:red")
	assert.NotContains(t, out, "<p>")
}

func TestFromHTMLBlockTagsBecomeNewlines(t *testing.T) {
	out, err := FromHTML("<div>one</div><div>two</div>")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", out)
}

func TestNormalizeMissingFile(t *testing.T) {
	_, err := Normalize(filepath.Join(t.TempDir(), "nope.md"))
	assert.Error(t, err)
}
