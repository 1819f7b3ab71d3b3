package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/elektrokombinacija/zoneplan/internal/core"
)

const maxResponseSize = 1 << 20

// HTTPExecutor sends moves to a game endpoint as
// GET {BaseURL}/execute_action?action=<name>.
type HTTPExecutor struct {
	BaseURL string
	Style   ActionStyle
	Client  *http.Client
	Logger  *slog.Logger
}

// NewHTTPExecutor returns an executor with its own client.
func NewHTTPExecutor(baseURL string, style ActionStyle, timeout time.Duration) *HTTPExecutor {
	return &HTTPExecutor{
		BaseURL: baseURL,
		Style:   style,
		Client:  &http.Client{Timeout: timeout},
	}
}

type actionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Execute implements Executor.
func (e *HTTPExecutor) Execute(ctx context.Context, m core.Move) error {
	name := e.Style.Name(m)

	u, err := url.Parse(strings.TrimRight(e.BaseURL, "/") + "/execute_action")
	if err != nil {
		return fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set("action", name)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: unexpected status %d: %s", name, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out actionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", name, err)
	}
	if !out.Success {
		if out.Error != "" {
			return fmt.Errorf("%s: %w: %s", name, ErrRejected, out.Error)
		}
		return fmt.Errorf("%s: %w", name, ErrRejected)
	}

	if e.Logger != nil {
		e.Logger.Debug("action sent", "action", name)
	}
	return nil
}
