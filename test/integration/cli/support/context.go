package support

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/boardpass/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastOutput   string
	LastStderr   string
	LastError    error
	LastExitCode int

	// Test environment
	TempDir  string
	Fixtures string
	EnvVars  map[string]string

	// Server state
	HTTPServer         *httptest.Server
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a context with its own temporary directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "boardpass-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{
		TempDir:         tempDir,
		EnvVars:         map[string]string{},
		LastHTTPHeaders: map[string]string{},
	}, nil
}

// Cleanup stops the server, restores the environment and removes the
// temporary directory.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	for name := range testCtx.EnvVars {
		_ = os.Unsetenv(name)
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// Path resolves a scenario-relative file name inside the temporary directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// substituteCommandVariables expands {tmp} and {fixtures}.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.NewReplacer(
		"{tmp}", testCtx.TempDir,
		"{fixtures}", testCtx.Fixtures,
	).Replace(command)
}

// ensureFixtures writes the sample tickets once per scenario.
func (testCtx *TestContext) ensureFixtures() error {
	if testCtx.Fixtures != "" {
		return nil
	}
	path, err := testutil.WriteSampleFixtures(testCtx.TempDir)
	if err != nil {
		return fmt.Errorf("write fixtures: %w", err)
	}
	testCtx.Fixtures = path
	return nil
}
