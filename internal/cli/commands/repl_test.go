package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlsift/sqlsift/internal/analyze"
	"github.com/sqlsift/sqlsift/internal/cli/config"
	"github.com/sqlsift/sqlsift/internal/output"
	"github.com/sqlsift/sqlsift/internal/testutil"
)

func newTestSession(t *testing.T) (*replSession, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRenderer(output.ModeText)
	cmdCtx := &CommandContext{
		Cfg:      &config.Config{OutputFormat: "text"},
		Logger:   testutil.NewTestLogger(t),
		Analyzer: analyze.New(testutil.NewTestLogger(t)),
		Renderer: tr.Renderer,
	}
	return &replSession{
		cmdCtx: cmdCtx,
		ctx:    context.Background(),
		vars:   make(map[string]any),
	}, tr
}

func feedAll(s *replSession, lines ...string) (quit bool, prompt string) {
	prompt = replPrompt
	for _, line := range lines {
		quit, prompt = s.feed(line)
		if quit {
			return quit, prompt
		}
	}
	return quit, prompt
}

func TestREPLFeed_PasteAndAnalyze(t *testing.T) {
	s, tr := newTestSession(t)

	quit, prompt := s.feed("SELECT * FROM users")
	assert.False(t, quit)
	assert.Equal(t, replContinue, prompt, "open buffer should switch to the continuation prompt")

	quit, prompt = s.feed("WHERE id = {{ user_id }}")
	assert.False(t, quit)
	assert.Equal(t, replContinue, prompt)

	quit, prompt = s.feed(";;")
	assert.False(t, quit)
	assert.Equal(t, replPrompt, prompt, "terminator should return to the main prompt")

	assert.Equal(t, "SELECT * FROM users\nWHERE id = {{ user_id }}", s.template)
	assert.Contains(t, tr.Output(), "user_id")
	assert.Contains(t, tr.Output(), "(1 variables)")
}

func TestREPLFeed_TerminatorKeepsHead(t *testing.T) {
	s, tr := newTestSession(t)

	_, prompt := s.feed("SELECT {{ user_id }};;")
	assert.Equal(t, replPrompt, prompt)
	assert.Equal(t, "SELECT {{ user_id }}", s.template, "text before the terminator belongs to the template")
	assert.Contains(t, tr.Output(), "Demo SQL")
	assert.Contains(t, tr.Output(), "SELECT 42")
}

func TestREPLFeed_EmptyLineOutsideBuffer(t *testing.T) {
	s, _ := newTestSession(t)

	quit, prompt := s.feed("   ")
	assert.False(t, quit)
	assert.Equal(t, replPrompt, prompt)
	assert.False(t, s.buffering())
}

func TestREPLFeed_DotCommandWhileBufferingIsTemplateText(t *testing.T) {
	s, _ := newTestSession(t)

	s.feed("SELECT 1")
	_, prompt := s.feed(".help")
	assert.Equal(t, replContinue, prompt, "dot-commands only apply outside a paste")

	s.feed(";;")
	assert.Contains(t, s.template, ".help")
}

func TestREPLDot_SetContextUnset(t *testing.T) {
	s, tr := newTestSession(t)

	quit, _ := feedAll(s, ".set region eu", ".set limit 50", ".set active true")
	assert.False(t, quit)
	assert.Equal(t, "eu", s.vars["region"])
	assert.Equal(t, 50, s.vars["limit"], ".set values should parse like --var values")
	assert.Equal(t, true, s.vars["active"])

	tr.Reset()
	s.feed(".context")
	got := tr.Output()
	assert.Contains(t, got, "active = true")
	assert.Contains(t, got, "limit = 50")
	assert.Contains(t, got, "region = eu")

	s.feed(".unset limit")
	_, ok := s.vars["limit"]
	assert.False(t, ok)
}

func TestREPLDot_SetJoinsValueWords(t *testing.T) {
	s, _ := newTestSession(t)

	s.feed(".set note hello world")
	assert.Equal(t, "hello world", s.vars["note"])
}

func TestREPLDot_SetUsage(t *testing.T) {
	s, tr := newTestSession(t)

	s.feed(".set region")
	assert.Contains(t, tr.ErrorOutput(), "usage: .set NAME VALUE")
}

func TestREPLDot_RequireTemplate(t *testing.T) {
	s, tr := newTestSession(t)

	for _, cmd := range []string{".vars", ".reduce", ".render"} {
		tr.Reset()
		quit, _ := s.feed(cmd)
		assert.False(t, quit)
		assert.Contains(t, tr.ErrorOutput(), "no template loaded", "%s should demand a template", cmd)
	}
}

func TestREPLDot_Reduce(t *testing.T) {
	s, tr := newTestSession(t)

	feedAll(s, "SELECT 1{% if include_deleted %}, 2{% endif %};;")

	tr.Reset()
	s.feed(".reduce")
	assert.NotContains(t, tr.Output(), ", 2", "falsy condition strips the block")

	feedAll(s, ".set include_deleted true")
	tr.Reset()
	s.feed(".reduce")
	assert.Contains(t, tr.Output(), ", 2")
}

func TestREPLDot_Render(t *testing.T) {
	s, tr := newTestSession(t)

	feedAll(s, "SELECT {{ user_id }};;")

	tr.Reset()
	s.feed(".render")
	assert.Contains(t, tr.Output(), "SELECT 42", "no session variables renders demo values")

	feedAll(s, ".set user_id 7")
	tr.Reset()
	s.feed(".render")
	assert.Contains(t, tr.Output(), "SELECT 7")
}

func TestREPLDot_Load(t *testing.T) {
	s, tr := newTestSession(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "query.sql.j2")
	require.NoError(t, os.WriteFile(path, []byte("SELECT {{ user_id }}\n"), 0o600))

	s.feed(".load " + path)
	assert.Equal(t, "SELECT {{ user_id }}", s.template)
	assert.Contains(t, tr.Output(), "user_id")

	tr.Reset()
	s.feed(".load " + filepath.Join(dir, "missing.sql"))
	assert.Contains(t, tr.ErrorOutput(), "failed to read template")
}

func TestREPLDot_Clear(t *testing.T) {
	s, tr := newTestSession(t)

	feedAll(s, "SELECT 1;;", ".set region eu")
	require.NotEmpty(t, s.template)
	require.NotEmpty(t, s.vars)

	s.feed(".clear")
	assert.Empty(t, s.template)
	assert.Empty(t, s.vars)
	assert.Contains(t, tr.Output(), "session cleared")
}

func TestREPLDot_QuitAndExit(t *testing.T) {
	for _, cmd := range []string{".quit", ".exit", ".QUIT"} {
		s, _ := newTestSession(t)
		quit, _ := s.feed(cmd)
		assert.True(t, quit, "%s should end the session", cmd)
	}
}

func TestREPLDot_Unknown(t *testing.T) {
	s, tr := newTestSession(t)

	s.feed(".bogus")
	assert.Contains(t, tr.ErrorOutput(), "unknown command: .bogus")
}

func TestREPLDot_Help(t *testing.T) {
	s, tr := newTestSession(t)

	s.feed(".help")
	got := tr.Output()
	assert.Contains(t, got, ".set NAME VALUE")
	assert.Contains(t, got, ".quit")
}
