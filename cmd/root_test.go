package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	_, err = executeSplit(root, buf, buf, args...)
	return buf.String(), err
}

// executeSplit is executeCommand with separate stdout and stderr.
func executeSplit(root *cobra.Command, out, errOut *bytes.Buffer, args ...string) (*cobra.Command, error) {
	resetFlags(root)
	root.SetIn(new(bytes.Buffer))
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)
	return root.ExecuteC()
}

// resetFlags restores every flag to its default so commands can run more
// than once in a test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// sandbox isolates a test from the user's config and terminal.
func sandbox(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(orig) })

	origIn, origOut := stdinIsTerminal, stdoutIsTerminal
	stdinIsTerminal = func() bool { return false }
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() {
		stdinIsTerminal, stdoutIsTerminal = origIn, origOut
	})
	return dir
}
