package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakeyudi/paws/internal/bundle"
)

func writeTree(t *testing.T, root string, files map[string]string) []string {
	t.Helper()
	var paths []string
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func TestExtractBundle_RoundTripThroughDisk(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"main.go":         "package main\n",
		"docs/readme.md":  "# title\r\nbody",
		"docs/empty.txt":  "",
		"assets/logo.txt": "```\nnot a fence here\n```",
	}
	paths := writeTree(t, src, files)

	enc := &bundle.Encoder{}
	res, err := enc.Encode(paths, src)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "restored")
	rep, err := ExtractBundle(res.Text, out, Options{Policy: PolicyYes})
	require.NoError(t, err)
	assert.Equal(t, Summary{Extracted: len(files)}, rep.Summary)

	for rel, want := range files {
		got, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, want, string(got), rel)
	}
}

func TestExtractBundle_EmptyBundle(t *testing.T) {
	rep, err := ExtractBundle("nothing to see here\n", t.TempDir(), Options{})
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, Result{Path: "bundle", Status: StatusSkipped, Message: "no files found in bundle"}, rep.Results[0])
}

func TestExtractBundle_OutputPathIsAFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))

	_, err := ExtractBundle("--- CATS_START_FILE: a ---\nx\n--- CATS_END_FILE ---\n", f, Options{})
	assert.Error(t, err)
}

func TestExtractBundle_SymlinkEscapeOnDisk(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")
	outside := filepath.Join(base, "outside")
	require.NoError(t, os.Mkdir(out, 0o755))
	require.NoError(t, os.Mkdir(outside, 0o755))
	require.NoError(t, os.Symlink("../outside", filepath.Join(out, "link")))

	text := "--- CATS_START_FILE: link/evil.txt ---\npwned\n--- CATS_END_FILE ---\n" +
		"--- CATS_START_FILE: ok.txt ---\nfine\n--- CATS_END_FILE ---\n"
	rep, err := ExtractBundle(text, out, Options{Policy: PolicyYes})
	require.NoError(t, err)

	require.Len(t, rep.Results, 2)
	assert.Equal(t, StatusError, rep.Results[0].Status)
	assert.Equal(t, StatusExtracted, rep.Results[1].Status)
	_, err = os.Stat(filepath.Join(outside, "evil.txt"))
	assert.True(t, os.IsNotExist(err), "nothing may be written outside the root")
}

func TestExtractBundle_TraversalIsAnError(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "out")
	text := "# Cats Bundle\n# Format: Raw UTF-8\n\n--- CATS_START_FILE: ../../etc/passwd ---\nroot\n--- CATS_END_FILE ---\n"

	rep, err := ExtractBundle(text, out, Options{Policy: PolicyYes})
	require.NoError(t, err)

	require.Len(t, rep.Results, 1)
	assert.Equal(t, StatusError, rep.Results[0].Status)
	assert.Equal(t, Summary{Errors: 1}, rep.Summary)
	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractBundle_NonInteractivePromptKeepsFiles(t *testing.T) {
	out := t.TempDir()
	writeTree(t, out, map[string]string{"a.txt": "original"})
	p := &scriptedPrompter{answers: []Choice{ChoiceYes}}

	rep, err := ExtractBundle("--- CATS_START_FILE: a.txt ---\nnew\n--- CATS_END_FILE ---\n", out,
		Options{Policy: PolicyPrompt, Prompter: p, Interactive: false})
	require.NoError(t, err)

	assert.Empty(t, p.asked)
	assert.Equal(t, StatusSkipped, rep.Results[0].Status)
	got, err := os.ReadFile(filepath.Join(out, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestExtractBundle_DryRunMissingRootIsNotCreated(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing")

	rep, err := ExtractBundle("--- CATS_START_FILE: a.txt ---\nx\n--- CATS_END_FILE ---\n", out, Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, StatusExtracted, rep.Results[0].Status)
	assert.True(t, rep.DryRun)
	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestExtractBundle_FailuresInterleaveInLineOrder(t *testing.T) {
	text := strings.Join([]string{
		bundle.CatsHeader,
		bundle.FormatPrefix + "Base64",
		"--- CATS_START_FILE: first.txt ---",
		"Zmlyc3Q=",
		"--- CATS_END_FILE ---",
		"--- CATS_START_FILE: broken.bin ---",
		"%%%",
		"--- CATS_END_FILE ---",
		"--- CATS_START_FILE: last.txt ---",
		"bGFzdA==",
		"--- CATS_END_FILE ---",
	}, "\n")

	rep, err := ExtractBundle(text, t.TempDir(), Options{Policy: PolicyYes})
	require.NoError(t, err)

	require.Len(t, rep.Results, 3)
	assert.Equal(t, []Status{StatusExtracted, StatusError, StatusExtracted},
		[]Status{rep.Results[0].Status, rep.Results[1].Status, rep.Results[2].Status})
	assert.Equal(t, "broken.bin", rep.Results[1].Path)
	assert.Equal(t, Summary{Extracted: 2, Errors: 1}, rep.Summary)
}

func TestExtractBundle_OverrideForcesRawText(t *testing.T) {
	out := t.TempDir()
	mode := bundle.ModeRawText
	text := bundle.CatsHeader + "\n# Format: Base64\n--- CATS_START_FILE: a.txt ---\nplain words\n--- CATS_END_FILE ---\n"

	rep, err := ExtractBundle(text, out, Options{Override: &mode, Policy: PolicyYes})
	require.NoError(t, err)

	assert.True(t, rep.Format.Overridden)
	got, err := os.ReadFile(filepath.Join(out, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "plain words", string(got))
}
