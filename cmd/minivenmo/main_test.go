package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("MINIVENMO_CONFIG", "")
	t.Setenv("MINIVENMO_LOG_LEVEL", "error")
}

func newTestRuntime(t *testing.T, out io.Writer) *runtime {
	t.Helper()
	isolateConfig(t)

	rt, err := bootstrap(context.Background(), bootstrapOptions{out: out, errOut: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.close(context.Background()) })

	return rt
}

func TestDemoCommand(t *testing.T) {
	isolateConfig(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"demo"})
	root.SetOut(&out)
	root.SetErr(io.Discard)

	require.NoError(t, root.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Bobby registered on "))
	assert.Equal(t, "Bobby paid Carol $5.00 for Coffee.", lines[1])
	assert.Equal(t, "Carol paid Bobby $15.00 for Lunch.", lines[2])
}

func TestDemoCommand_FeedEmissionOff(t *testing.T) {
	isolateConfig(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("feed:\n  emit: false\n"), 0o600))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"demo", "--config", path})
	root.SetOut(&out)
	root.SetErr(io.Discard)

	require.NoError(t, root.Execute())
	assert.Empty(t, out.String())
}

func TestDemoCommand_BadConfig(t *testing.T) {
	isolateConfig(t)

	root := newRootCmd()
	root.SetArgs([]string{"demo", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	assert.ErrorContains(t, root.Execute(), "load config")
}

func TestRunShell(t *testing.T) {
	var out bytes.Buffer
	rt := newTestRuntime(t, &out)

	script := strings.Join([]string{
		"create Bobby 5.00 4111111111111111",
		"create Carol 10",
		"create Car 1",
		"pay Bobby Carol 5.00 Coffee and cake",
		"pay Bobby Carol 2.50 \"Late fee\"",
		"balance Bobby",
		"balance Carol",
		"pay Carol Carol 1 self",
		"friend Bobby Carol",
		"friends Bobby",
		"feed Carol",
		"nonsense",
		"exit",
		"users",
	}, "\n")

	require.NoError(t, runShell(context.Background(), rt, strings.NewReader(script), &out))

	got := out.String()
	assert.Contains(t, got, "created Bobby with $5.00")
	assert.Contains(t, got, "created Carol with $10.00")
	assert.Contains(t, got, "error: Invalid input. username not valid [E101")
	assert.Contains(t, got, "Bobby paid Carol $5.00 for Coffee and cake. (balance)")
	assert.Contains(t, got, "Bobby paid Carol $2.50 for Late fee. (card)")
	assert.Contains(t, got, "$0.00\n")
	assert.Contains(t, got, "$17.50\n")
	assert.Contains(t, got, "[E401")
	assert.Contains(t, got, "Bobby added Carol as a friend")
	assert.Contains(t, got, "Carol registered on ")
	assert.Contains(t, got, "error: unknown command \"nonsense\"")
	assert.True(t, strings.HasSuffix(got, shellPrompt))
}

func TestRunShell_EmitToggle(t *testing.T) {
	var out bytes.Buffer
	rt := newTestRuntime(t, &out)

	script := "create Bobby 1\nemit off\nfeed Bobby\nemit on\nfeed Bobby\n"
	require.NoError(t, runShell(context.Background(), rt, strings.NewReader(script), &out))

	got := out.String()
	assert.Contains(t, got, "1 feed entries (emission is off)")
	assert.Equal(t, 1, strings.Count(got, "Bobby registered on "))
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{line: "pay a b 1 note", want: []string{"pay", "a", "b", "1", "note"}},
		{line: `pay a b 1 "two words"`, want: []string{"pay", "a", "b", "1", "two words"}},
		{line: "  spaced\tout  ", want: []string{"spaced", "out"}},
		{line: `empty ""`, want: []string{"empty", ""}},
		{line: `bad "quote`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount("$12.5")
	require.NoError(t, err)
	assert.Equal(t, "12.50", amount.StringFixed(2))

	_, err = parseAmount("twelve")
	assert.Error(t, err)
}
