package support

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/server"
	"github.com/cucumber/godog"
)

// RegisterServerSteps registers the HTTP API steps.
func (testCtx *TestContext) RegisterServerSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the boardpass server is running$`, testCtx.theServerIsRunning)
	sc.Step(`^the boardpass server is running with a limit of (\d+) requests? per minute$`, testCtx.theServerIsRunningWithLimit)
	sc.Step(`^I send a (GET|POST|OPTIONS) request to "([^"]*)"$`, testCtx.iSendARequestTo)
	sc.Step(`^I POST the JSON '([^']*)' to "([^"]*)"$`, testCtx.iPOSTTheJSONTo)
	sc.Step(`^I upload "([^"]*)" to "([^"]*)"$`, testCtx.iUploadTo)
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, testCtx.theResponseShouldContain)
	sc.Step(`^the response header "([^"]*)" should contain "([^"]*)"$`, testCtx.theResponseHeaderShouldContain)
	sc.Step(`^the response JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseJSONFieldShouldBe)
	sc.Step(`^the response should be a PDF$`, testCtx.theResponseShouldBeAPDF)
}

func (testCtx *TestContext) theServerIsRunning() error {
	return testCtx.startServer(config.RateLimitConfig{})
}

func (testCtx *TestContext) theServerIsRunningWithLimit(perMinute int) error {
	return testCtx.startServer(config.RateLimitConfig{Enabled: true, RequestsPerMinute: perMinute})
}

func (testCtx *TestContext) startServer(rl config.RateLimitConfig) error {
	if err := testCtx.ensureFixtures(); err != nil {
		return err
	}
	store, err := lookup.LoadMemory(testCtx.Fixtures)
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Server.RateLimit = rl
	srvCfg := server.ConfigFromSettings(&cfg, "integration")
	srvCfg.Render.Now = func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }

	api := server.NewServer(srvCfg, store, assets.Dir(testCtx.TempDir))
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
	}
	testCtx.HTTPServer = httptest.NewServer(api.Router())
	return nil
}

func (testCtx *TestContext) iSendARequestTo(method, path string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, testCtx.url(path), nil)
	if err != nil {
		return err
	}
	return testCtx.do(req)
}

func (testCtx *TestContext) iPOSTTheJSONTo(body, path string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, testCtx.url(path), strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return testCtx.do(req)
}

func (testCtx *TestContext) iUploadTo(name, path string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return err
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, testCtx.url(path), &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return testCtx.do(req)
}

func (testCtx *TestContext) url(path string) string {
	if testCtx.HTTPServer == nil {
		return path
	}
	return testCtx.HTTPServer.URL + path
}

func (testCtx *TestContext) do(req *http.Request) error {
	if testCtx.HTTPServer == nil {
		return errors.New("server is not running")
	}
	resp, err := testCtx.HTTPServer.Client().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	testCtx.LastHTTPStatusCode = resp.StatusCode
	testCtx.LastHTTPResponse = string(body)
	testCtx.LastHTTPHeaders = map[string]string{}
	for name := range resp.Header {
		testCtx.LastHTTPHeaders[name] = resp.Header.Get(name)
	}
	return nil
}

func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastHTTPStatusCode != status {
		return fmt.Errorf("expected status %d, got %d\nBody: %s", status, testCtx.LastHTTPStatusCode, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseShouldContain(text string) error {
	if !strings.Contains(testCtx.LastHTTPResponse, text) {
		return fmt.Errorf("response does not contain '%s'\nBody: %s", text, testCtx.LastHTTPResponse)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldContain(name, text string) error {
	got := testCtx.LastHTTPHeaders[http.CanonicalHeaderKey(name)]
	if !strings.Contains(got, text) {
		return fmt.Errorf("header %s is '%s', expected it to contain '%s'", name, got, text)
	}
	return nil
}

func (testCtx *TestContext) theResponseJSONFieldShouldBe(field, expected string) error {
	return jsonFieldEquals(testCtx.LastHTTPResponse, field, expected)
}

func (testCtx *TestContext) theResponseShouldBeAPDF() error {
	if !strings.HasPrefix(testCtx.LastHTTPResponse, "%PDF-") {
		return fmt.Errorf("response is not a PDF (%d bytes)", len(testCtx.LastHTTPResponse))
	}
	return testCtx.theResponseHeaderShouldContain("Content-Type", "application/pdf")
}
