package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	maxErrorBodyChars  = 2000
)

func newHTTPClient(providerName string, timeout time.Duration, proxy string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &http.Client{Timeout: timeout}
	if proxy = strings.TrimSpace(proxy); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("parse %s proxy: %w", providerName, err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return client, nil
}

// jsonEndpoint is an authenticated JSON POST target shared by the
// provider implementations.
type jsonEndpoint struct {
	provider string
	client   *http.Client
	auth     AuthStrategy
	headers  map[string]string
}

// post sends payload and returns the body of a 2xx response. Any other
// status becomes an error carrying the upstream message and a hint.
func (e jsonEndpoint) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if err := e.auth.Apply(ctx, req); err != nil {
		return nil, fmt.Errorf("apply auth: %w", err)
	}
	for name, value := range e.headers {
		req.Header.Set(name, value)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		msg := augmentProviderError(e.provider, extractAPIError(body))
		return nil, fmt.Errorf("status=%d error=%s", resp.StatusCode, msg)
	}
	return body, nil
}

// extractAPIError pulls a readable message out of an error body. Upstreams
// disagree on the shape: {"error": "..."}, {"error": {"message": "..."}}
// and {"message": "..."} are all seen.
func extractAPIError(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "empty response body"
	}

	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		var text string
		var nested struct {
			Message string `json:"message"`
		}
		switch {
		case json.Unmarshal(payload.Error, &text) == nil && strings.TrimSpace(text) != "":
			return strings.TrimSpace(text)
		case json.Unmarshal(payload.Error, &nested) == nil && strings.TrimSpace(nested.Message) != "":
			return strings.TrimSpace(nested.Message)
		case strings.TrimSpace(payload.Message) != "":
			return strings.TrimSpace(payload.Message)
		}
	}

	if len(trimmed) > maxErrorBodyChars {
		return trimmed[:maxErrorBodyChars] + "..."
	}
	return trimmed
}
