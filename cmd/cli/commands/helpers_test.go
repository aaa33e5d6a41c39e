package commands

import (
	"bytes"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/milescrape/milescrape/pkg/api/v1/client"
)

// setupTestCommand builds a root without the client bootstrap so tests can inject apiClient
func setupTestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "milescrape",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	for _, sub := range []*cobra.Command{scansCmd, leadsCmd, statsCmd, healthCmd} {
		resetFlags(sub)
		cmd.AddCommand(sub)
	}
	return cmd
}

// resetFlags puts every flag below c back to its default so cases do not leak into each other
func resetFlags(c *cobra.Command) {
	c.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs args against a test root using c as the API client and
// returns what the command printed
func executeCommand(t *testing.T, c client.Client, args ...string) (string, error) {
	t.Helper()

	originalClient := apiClient
	apiClient = c
	defer func() { apiClient = originalClient }()

	// Create a buffer to capture output
	buf := new(bytes.Buffer)
	originalStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	// Use WaitGroup to ensure we capture all output
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = io.Copy(buf, r)
	}()

	cmd := setupTestCommand()
	cmd.SetArgs(args)
	execErr := cmd.Execute()

	// Close the write end of the pipe and restore stdout
	_ = w.Close()
	os.Stdout = originalStdout

	// Wait for output to be copied
	wg.Wait()
	_ = r.Close()

	return buf.String(), execErr
}

func findCommand(cmds []*cobra.Command, name string) *cobra.Command {
	for _, c := range cmds {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
