package candidate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/harrison/frontend-diff/internal/models"
)

// maxResponseBytes is the default cap on a rendered response.
const maxResponseBytes = 16 << 20

// HTTP renders by POSTing the request as JSON to a URL. A JSON response is
// read from its "html" field; any other body is the markup itself.
type HTTP struct {
	URL      string
	Client   *http.Client
	MaxBytes int64 // response body cap; zero means 16 MiB
}

// NewHTTP creates an HTTP renderer.
func NewHTTP(url string) *HTTP {
	return &HTTP{URL: url, Client: http.DefaultClient}
}

// Render implements Renderer.
func (h *HTTP) Render(ctx context.Context, req models.RenderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	payload, err := req.JSON()
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(payload))
	if err != nil {
		return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/html, application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: err}
	}
	defer resp.Body.Close()

	limit := h.MaxBytes
	if limit <= 0 {
		limit = maxResponseBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: err}
	}
	if int64(len(body)) > limit {
		return "", &InvocationError{
			Target:   req.Target(),
			ExitCode: -1,
			Err:      fmt.Errorf("response exceeds %d bytes", limit),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &InvocationError{
			Target:   req.Target(),
			ExitCode: -1,
			Status:   resp.StatusCode,
			Stderr:   string(body),
			Err:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, _ := mime.ParseMediaType(contentType); mediaType == "application/json" {
		if !gjson.ValidBytes(body) {
			return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: fmt.Errorf("invalid JSON response")}
		}
		result := gjson.GetBytes(body, "html")
		if !result.Exists() {
			msg := "response has no html field"
			if e := gjson.GetBytes(body, "error"); e.Exists() {
				msg = e.String()
			}
			return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: fmt.Errorf("%s", msg)}
		}
		return result.String(), nil
	}

	out, err := decode(body, contentType)
	if err != nil {
		return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: err}
	}
	return out, nil
}
