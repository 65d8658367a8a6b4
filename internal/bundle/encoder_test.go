package bundle_test

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/paws/internal/bundle"
)

// memReader serves file contents from a map keyed by absolute path.
func memReader(files map[string][]byte) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		data, ok := files[name]
		if !ok {
			return nil, fs.ErrNotExist
		}
		return data, nil
	}
}

func genPaths(t *rapid.T) []string {
	rels := rapid.SliceOfNDistinct(
		rapid.StringMatching(`[a-z0-9]{1,6}(/[a-z0-9]{1,6}){0,2}\.[a-z]{1,3}`),
		1, 6, rapid.ID[string],
	).Draw(t, "rels")
	abs := make([]string, len(rels))
	for i, r := range rels {
		abs[i] = path.Join("/proj", r)
	}
	return abs
}

func roundTrip(t *rapid.T, enc *bundle.Encoder, files map[string][]byte) {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	enc.ReadFile = memReader(files)

	res, err := enc.Encode(paths, bundle.CommonAncestor(paths))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	p := &bundle.Parser{}
	parsed := p.Parse(res.Text)
	if len(parsed.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", parsed.Failures)
	}
	if parsed.Format.Mode != res.Mode {
		t.Fatalf("parsed mode %v, encoded mode %v", parsed.Format.Mode, res.Mode)
	}
	if len(parsed.Records) != len(paths) {
		t.Fatalf("got %d records for %d files", len(parsed.Records), len(paths))
	}

	sort.Strings(paths)
	for i, rec := range parsed.Records {
		if rec.Path != res.Files[i] {
			t.Fatalf("record %d: path %q, want %q", i, rec.Path, res.Files[i])
		}
		if !bytes.Equal(rec.Content, files[paths[i]]) {
			t.Fatalf("record %d (%s): content %q, want %q", i, rec.Path, rec.Content, files[paths[i]])
		}
	}
}

// Feature: paws, Property 1: Encoding then parsing returns every file's exact bytes.
func TestProperty_RoundTripArbitraryBytes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		paths := genPaths(t)
		files := make(map[string][]byte, len(paths))
		for _, p := range paths {
			files[p] = rapid.SliceOfN(rapid.Byte(), 0, 256).Draw(t, "content")
		}
		enc := &bundle.Encoder{
			ForceBase64: rapid.Bool().Draw(t, "force"),
			Dialect:     rapid.SampledFrom([]bundle.Dialect{bundle.DialectCats, bundle.DialectDogs}).Draw(t, "dialect"),
		}
		roundTrip(t, enc, files)
	})
}

// Feature: paws, Property 2: Text files round-trip in raw mode, including CR and empty files.
func TestProperty_RoundTripText(t *testing.T) {
	line := rapid.SampledFrom([]string{"", "hello", "  indented", "```", "Editing `x.go`:", "line\r", "--- not a marker", "# Format: Base64", "héllo wörld"})
	rapid.Check(t, func(t *rapid.T) {
		paths := genPaths(t)
		files := make(map[string][]byte, len(paths))
		for _, p := range paths {
			lines := rapid.SliceOfN(line, 0, 8).Draw(t, "lines")
			files[p] = []byte(strings.Join(lines, "\n"))
		}
		roundTrip(t, &bundle.Encoder{}, files)
	})
}

func TestEncode_NonUTF8FileTaintsWholeBundle(t *testing.T) {
	files := map[string][]byte{
		"/p/a.txt": []byte("plain"),
		"/p/b.bin": {0xff, 0xfe, 0x00},
	}
	enc := &bundle.Encoder{ReadFile: memReader(files)}
	res, err := enc.Encode([]string{"/p/b.bin", "/p/a.txt"}, "/p")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Mode != bundle.ModeBase64 {
		t.Fatalf("mode = %v, want Base64", res.Mode)
	}
	if !strings.Contains(res.Text, "# Format: Base64 (Auto-Detected due to non-UTF-8 content)\n") {
		t.Errorf("missing auto-detected format line:\n%s", res.Text)
	}
	if strings.Contains(res.Text, "plain") {
		t.Error("text file should be Base64 encoded once the bundle is tainted")
	}
	if want := []string{"a.txt", "b.bin"}; strings.Join(res.Files, ",") != strings.Join(want, ",") {
		t.Errorf("files = %v, want %v", res.Files, want)
	}
}

func TestEncode_MarkerLineInContentTaints(t *testing.T) {
	files := map[string][]byte{
		"/p/doc.md": []byte("before\n--- CATS_END_FILE ---\nafter\n"),
	}
	enc := &bundle.Encoder{ReadFile: memReader(files)}
	res, err := enc.Encode([]string{"/p/doc.md"}, "/p")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if res.Mode != bundle.ModeBase64 {
		t.Fatalf("mode = %v, want Base64", res.Mode)
	}
}

func TestEncode_RawLayout(t *testing.T) {
	files := map[string][]byte{"/p/src/a.go": []byte("package a\n")}
	enc := &bundle.Encoder{ReadFile: memReader(files)}
	res, err := enc.Encode([]string{"/p/src/a.go"}, "/p")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "# Cats Bundle\n" +
		"# Format: Raw UTF-8 (All files appear UTF-8 compatible)\n" +
		"\n" +
		"--- CATS_START_FILE: src/a.go ---\n" +
		"package a\n" +
		"\n" +
		"--- CATS_END_FILE ---\n"
	if res.Text != want {
		t.Errorf("text =\n%q\nwant\n%q", res.Text, want)
	}
}

func TestEncode_ForcedDogsLayout(t *testing.T) {
	files := map[string][]byte{"/p/a.txt": []byte("hi")}
	enc := &bundle.Encoder{ForceBase64: true, Dialect: bundle.DialectDogs, ReadFile: memReader(files)}
	res, err := enc.Encode([]string{"/p/a.txt"}, "/p")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "# Dogs Bundle\n# Format: Base64 (Forced)\n\n--- DOGS_START_FILE: a.txt ---\naGk=\n--- DOGS_END_FILE ---\n"
	if res.Text != want {
		t.Errorf("text =\n%q\nwant\n%q", res.Text, want)
	}
}

func TestEncode_UnreadableFilesAreSkipped(t *testing.T) {
	files := map[string][]byte{"/p/ok.txt": []byte("ok")}
	enc := &bundle.Encoder{ReadFile: memReader(files)}
	res, err := enc.Encode([]string{"/p/ok.txt", "/p/missing.txt"}, "/p")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(res.Files) != 1 || res.Files[0] != "ok.txt" {
		t.Errorf("files = %v", res.Files)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "missing.txt") {
		t.Errorf("warnings = %v", res.Warnings)
	}
}

func TestEncode_NothingReadable(t *testing.T) {
	enc := &bundle.Encoder{ReadFile: func(string) ([]byte, error) { return nil, errors.New("boom") }}
	if _, err := enc.Encode([]string{"/p/a"}, "/p"); err == nil {
		t.Fatal("expected error when no file can be read")
	}
}

func TestCommonAncestor(t *testing.T) {
	cases := []struct {
		paths []string
		want  string
	}{
		{[]string{"/a/b/c.txt"}, "/a/b"},
		{[]string{"/a/b/c.txt", "/a/b/d.txt"}, "/a/b"},
		{[]string{"/a/b/c.txt", "/a/x/y/z.txt"}, "/a"},
		{[]string{"/a/bc/f", "/a/b/g"}, "/a"},
		{[]string{"/a/f", "/z/g"}, "/"},
	}
	for _, tc := range cases {
		if got := bundle.CommonAncestor(tc.paths); got != tc.want {
			t.Errorf("CommonAncestor(%v) = %q, want %q", tc.paths, got, tc.want)
		}
	}
}

func TestRelativePath(t *testing.T) {
	cases := []struct{ p, anc, want string }{
		{"/a/b/c.txt", "/a", "b/c.txt"},
		{"/a/c.txt", "/a", "c.txt"},
		{"/other/c.txt", "/a", "c.txt"},
	}
	for _, tc := range cases {
		if got := bundle.RelativePath(tc.p, tc.anc); got != tc.want {
			t.Errorf("RelativePath(%q, %q) = %q, want %q", tc.p, tc.anc, got, tc.want)
		}
	}
}

func ExampleParseDialect() {
	d, _ := bundle.ParseDialect("dogs")
	fmt.Println(d.StartMarker("a.txt"))
	fmt.Println(d.EndMarker())
	// Output:
	// --- DOGS_START_FILE: a.txt ---
	// --- DOGS_END_FILE ---
}
