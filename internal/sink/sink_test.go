package sink

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/naka-gawa/repo-vet/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func writePassingRun(t *testing.T, s Sink) {
	t.Helper()
	require.NoError(t, s.SetOutput(domain.KeyRepo, "octocat/Hello-World"))
	require.NoError(t, s.SetOutput(domain.KeyStars, domain.PassCheck(80, 10)))
	require.NoError(t, s.SetOutput(domain.KeyContributors, domain.FallbackResult()))
	require.NoError(t, s.SetOutput(domain.KeyCommits, domain.PassCheck(3, 100)))
	require.NoError(t, s.SetOutput(domain.KeyFinalPass, false))
}

func TestNewConsoleSink_UnsupportedFormat(t *testing.T) {
	_, err := NewConsoleSink(&bytes.Buffer{}, "yaml")
	assert.ErrorContains(t, err, "unsupported output format: yaml")
}

func TestConsoleSink_Text(t *testing.T) {
	disableColor(t)
	var buf bytes.Buffer
	s, err := NewConsoleSink(&buf, FormatText)
	require.NoError(t, err)

	writePassingRun(t, s)
	assert.Empty(t, buf.String(), "text output is rendered on Close")
	require.NoError(t, s.Close())

	out := buf.String()
	assert.Contains(t, out, "Repository: octocat/Hello-World")
	assert.Contains(t, out, "stars")
	assert.Contains(t, out, "5000+")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "Final verdict: FAIL")
	assert.Less(t, strings.Index(out, "stars"), strings.Index(out, "contributors"))
}

func TestConsoleSink_TextFailure(t *testing.T) {
	disableColor(t)
	var buf bytes.Buffer
	s, err := NewConsoleSink(&buf, FormatText)
	require.NoError(t, err)

	require.NoError(t, s.SetOutput(domain.KeyRepo, "octocat/missing"))
	require.NoError(t, s.Fail(errors.New("repository not found: octocat/missing")))
	require.NoError(t, s.Close())

	assert.Contains(t, buf.String(), "ERROR repository not found: octocat/missing")
	assert.NotContains(t, buf.String(), "Final verdict")
}

func TestConsoleSink_JSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewConsoleSink(&buf, FormatJSON)
	require.NoError(t, err)

	writePassingRun(t, s)
	require.NoError(t, s.Close())

	assert.JSONEq(t, `{
		"repo": "octocat/Hello-World",
		"stars": {"count": 80, "pass": true},
		"contributors": {"count": "5000+", "pass": true},
		"commits": {"count": 3, "pass": false},
		"final_pass": false
	}`, buf.String())
}

func TestConsoleSink_NDJSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewConsoleSink(&buf, FormatNDJSON)
	require.NoError(t, err)

	require.NoError(t, s.SetOutput(domain.KeyRepo, "octocat/Hello-World"))
	require.NoError(t, s.SetOutput(domain.KeyStars, domain.PassCheck(80, 10)))
	require.NoError(t, s.Fail(errors.New("boom")))
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"type":"output","key":"repo","value":"octocat/Hello-World"}`, lines[0])
	assert.JSONEq(t, `{"type":"output","key":"stars","value":{"count":80,"pass":true}}`, lines[1])
	assert.JSONEq(t, `{"type":"failed","error":"boom"}`, lines[2])
}

func TestConsoleSink_ConcurrentNDJSON(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewConsoleSink(&buf, FormatNDJSON)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, key := range metricKeys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			assert.NoError(t, s.SetOutput(key, domain.PassCheck(1, 1)))
		}(key)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(metricKeys))
	for _, line := range lines {
		var e Event
		assert.NoError(t, json.Unmarshal([]byte(line), &e))
	}
}

// readOutputFile parses a $GITHUB_OUTPUT file in either the name=value or the
// name<<DELIMITER multiline form.
func readOutputFile(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	values := make(map[string]string)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if name, delim, ok := strings.Cut(line, "<<"); ok {
			var body []string
			for i++; i < len(lines) && lines[i] != delim; i++ {
				body = append(body, lines[i])
			}
			values[name] = strings.Join(body, "\n")
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		require.True(t, ok, "malformed output line %q", line)
		values[name] = value
	}
	return values
}

func TestActionsSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	var annotations bytes.Buffer
	s, err := NewActionsSink(path, &annotations)
	require.NoError(t, err)

	writePassingRun(t, s)
	require.NoError(t, s.SetOutput("note", "line one\nline two"))
	require.NoError(t, s.Close())

	assert.Equal(t, map[string]string{
		"repo":         "octocat/Hello-World",
		"stars":        `{"count":80,"pass":true}`,
		"contributors": `{"count":"5000+","pass":true}`,
		"commits":      `{"count":3,"pass":false}`,
		"final_pass":   "false",
		"note":         "line one\nline two",
	}, readOutputFile(t, path))
	assert.Empty(t, annotations.String())
}

func TestActionsSink_Fail(t *testing.T) {
	var annotations bytes.Buffer
	s, err := NewActionsSink(filepath.Join(t.TempDir(), "github_output"), &annotations)
	require.NoError(t, err)

	require.NoError(t, s.Fail(errors.New("100% broken\nsecond line")))

	assert.True(t, strings.HasPrefix(annotations.String(), "::error::"))
	assert.Contains(t, annotations.String(), "100%25 broken%0Asecond line")
}

func TestActionsSink_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, os.WriteFile(path, []byte("previous=step\n"), 0o644))

	s, err := NewActionsSink(path, &bytes.Buffer{})
	require.NoError(t, err)
	require.NoError(t, s.SetOutput(domain.KeyFinalPass, true))
	require.NoError(t, s.Close())

	assert.Equal(t, map[string]string{"previous": "step", "final_pass": "true"}, readOutputFile(t, path))
}

func TestNewActionsSink_UnwritablePath(t *testing.T) {
	_, err := NewActionsSink(filepath.Join(t.TempDir(), "missing", "github_output"), &bytes.Buffer{})
	assert.ErrorContains(t, err, "failed to open GitHub output file")
}

type failingSink struct{ err error }

func (f failingSink) SetOutput(string, any) error { return f.err }
func (f failingSink) Fail(error) error           { return f.err }
func (f failingSink) Close() error               { return f.err }

func TestMulti(t *testing.T) {
	var buf bytes.Buffer
	console, err := NewConsoleSink(&buf, FormatNDJSON)
	require.NoError(t, err)
	broken := errors.New("disk full")

	m := NewMulti(console, nil, failingSink{err: broken})
	err = m.SetOutput(domain.KeyRepo, "octocat/Hello-World")
	assert.ErrorIs(t, err, broken)
	assert.Contains(t, buf.String(), "octocat/Hello-World")

	assert.ErrorIs(t, m.Fail(errors.New("boom")), broken)
	assert.ErrorIs(t, m.Close(), broken)
	assert.NoError(t, NewMulti(console).Close())
}
