package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/testutil"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag in the tree so runs do not leak into each other.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// executeCommand runs the root command with args and captures stdout and stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfgFile = ""
	globalConfig = nil

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// sampleFixtures writes the sample tickets and returns the fixtures path.
func sampleFixtures(t *testing.T) string {
	t.Helper()
	path, err := testutil.WriteSampleFixtures(t.TempDir())
	require.NoError(t, err)
	return path
}

func TestRootCommand(t *testing.T) {
	root := GetRootCommand()
	assert.Equal(t, "boardpass", root.Use)
	assert.NotEmpty(t, root.Short)
	assert.NotEmpty(t, root.Long)
	assert.True(t, root.HasSubCommands())
}

func TestRootCommandHelp(t *testing.T) {
	out, _, err := executeCommand(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "boarding pass")
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "Usage:")
}

func TestRootCommandVersion(t *testing.T) {
	out, _, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "boardpass dev"), out)
}

func TestRootCommandNoArgs(t *testing.T) {
	out, _, err := executeCommand(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
}

func TestRootCommandSubcommands(t *testing.T) {
	var names []string
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"resolve", "scan", "render", "qr", "inspect", "flights", "serve", "config"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, _, err := executeCommand(t, "--invalid-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRootCommandInvalidConfig(t *testing.T) {
	_, _, err := executeCommand(t, "resolve", "LH401", "--backend", "carrier-pigeon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid lookup backend")
}

func TestLogLevelFromFlags(t *testing.T) {
	fixtures := sampleFixtures(t)

	_, stderr, err := executeCommand(t, "resolve", "LH401", "--fixtures", fixtures, "--log-level", "error")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, "error", GetConfig().LogLevel)

	_, _, err = executeCommand(t, "resolve", "LH401", "--fixtures", fixtures, "-v")
	require.NoError(t, err)
	assert.True(t, GetConfig().Verbose)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("flight ZZ1: %w", ticket.ErrNotFound), exitNotFound},
		{&ticket.LookupError{FlightCode: "LH401", Err: errors.New("dial tcp")}, exitUnavailable},
		{fmt.Errorf("x.png: %w", barcode.ErrDecodeFailure), exitNoCode},
		{errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
