package support

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/boardpass/cmd/boardpass/cmd"
	"github.com/MeKo-Tech/boardpass/internal/pdf"
	"github.com/MeKo-Tech/boardpass/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterCLISteps registers the command line steps.
func (testCtx *TestContext) RegisterCLISteps(sc *godog.ScenarioContext) {
	sc.Step(`^the sample tickets are loaded$`, testCtx.theSampleTicketsAreLoaded)
	sc.Step(`^a QR ticket photo "([^"]*)" for "([^"]*)"$`, testCtx.aQRTicketPhotoFor)
	sc.Step(`^a logo "([^"]*)"$`, testCtx.aLogo)
	sc.Step(`^the environment variable "([^"]*)" is set to "([^"]*)"$`, testCtx.theEnvironmentVariableIsSetTo)

	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the exit code should be (\d+)$`, testCtx.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)
	sc.Step(`^the file "([^"]*)" should be a one page PDF$`, testCtx.theFileShouldBeAOnePagePDF)
	sc.Step(`^the PDF "([^"]*)" should contain "([^"]*)"$`, testCtx.thePDFShouldContain)
}

func (testCtx *TestContext) theSampleTicketsAreLoaded() error {
	return testCtx.ensureFixtures()
}

func (testCtx *TestContext) aQRTicketPhotoFor(name, payload string) error {
	_, err := testutil.WriteQRPhoto(testCtx.TempDir, name, payload)
	return err
}

func (testCtx *TestContext) aLogo(name string) error {
	return testutil.SavePNG(testutil.Logo(400, 400, "AIRLINE"), testCtx.Path(name))
}

func (testCtx *TestContext) theEnvironmentVariableIsSetTo(name, value string) error {
	value = testCtx.substituteCommandVariables(value)
	testCtx.EnvVars[name] = value
	return os.Setenv(name, value)
}

// iRunCommand runs the boardpass root command in-process. The leading
// program name is dropped.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteCommandVariables(command)
	testCtx.LastCommand = command

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}
	if parts[0] == "boardpass" {
		parts = parts[1:]
	}

	root := cmd.GetRootCommand()
	resetFlags(root)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(parts)

	err := root.Execute()
	testCtx.LastOutput = stdout.String()
	testCtx.LastStderr = stderr.String()
	testCtx.LastError = err
	testCtx.LastExitCode = 0
	if err != nil {
		testCtx.LastExitCode = cmd.ExitCode(err)
	}
	return nil
}

// resetFlags restores every flag so values do not leak between scenarios.
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

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theExitCodeShouldBe(code int) error {
	if testCtx.LastExitCode != code {
		return fmt.Errorf("expected exit code %d, got %d (error: %v)", code, testCtx.LastExitCode, testCtx.LastError)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	expectedText = testCtx.substituteCommandVariables(expectedText)
	if !strings.Contains(testCtx.LastOutput+testCtx.LastStderr, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains '%s'\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	var js json.RawMessage
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &js); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, testCtx.LastOutput)
	}
	return nil
}

// theJSONFieldShouldBe follows a dotted path through objects and arrays.
func (testCtx *TestContext) theJSONFieldShouldBe(field, expected string) error {
	return jsonFieldEquals(testCtx.LastOutput, field, expected)
}

func jsonFieldEquals(body, field, expected string) error {
	var current any
	if err := json.Unmarshal([]byte(body), &current); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	for _, part := range strings.Split(field, ".") {
		switch node := current.(type) {
		case map[string]any:
			val, ok := node[part]
			if !ok {
				return fmt.Errorf("field '%s' not found in JSON", field)
			}
			current = val
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return fmt.Errorf("index '%s' out of range in '%s'", part, field)
			}
			current = node[i]
		default:
			return fmt.Errorf("cannot navigate into '%s' of '%s'", part, field)
		}
	}
	if got := fmt.Sprint(current); got != expected {
		return fmt.Errorf("field '%s' is '%s', expected '%s'", field, got, expected)
	}
	return nil
}

func (testCtx *TestContext) theErrorShouldMention(errorText string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("no error occurred, but expected error containing '%s'", errorText)
	}
	if !strings.Contains(strings.ToLower(testCtx.LastError.Error()), strings.ToLower(errorText)) {
		return fmt.Errorf("error does not contain '%s'\nActual error: %s", errorText, testCtx.LastError)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file %s does not exist", name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldNotExist(name string) error {
	if testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file %s exists", name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldBeAOnePagePDF(name string) error {
	res, err := pdf.InspectFile(testCtx.Path(name), "")
	if err != nil {
		return err
	}
	if !res.Valid {
		return fmt.Errorf("%s is not a valid PDF: %s", name, res.ValidationError)
	}
	if res.TotalPages != 1 {
		return fmt.Errorf("%s has %d pages", name, res.TotalPages)
	}
	return nil
}

func (testCtx *TestContext) thePDFShouldContain(name, text string) error {
	res, err := pdf.InspectFile(testCtx.Path(name), "")
	if err != nil {
		return err
	}
	if !strings.Contains(res.Text(), text) {
		return fmt.Errorf("%s does not contain '%s'\nText: %s", name, text, res.Text())
	}
	return nil
}
