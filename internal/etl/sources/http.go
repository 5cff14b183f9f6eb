package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"console/internal/etl"
)

// ── HTTP Source ─────────────────────────────────────────────
// Fetches records from a JSON REST endpoint.

type httpSource struct {
	client *http.Client
}

func init() {
	etl.RegisterSource(&httpSource{client: &http.Client{Timeout: 30 * time.Second}})
}

func (s *httpSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "http",
		Label: "HTTP API",
		ConfigFields: []etl.ConfigField{
			{Key: "url", Label: "URL", Type: "string", Required: true, Help: "Full URL to fetch"},
			{Key: "method", Label: "Method", Type: "select", Options: []string{"GET", "POST"}, Default: "GET"},
			{Key: "headers", Label: "Headers", Type: "json", Help: `JSON object of headers, e.g. {"Authorization": "Bearer xxx"}`},
			{Key: "body", Label: "Body", Type: "textarea", Help: "Request body (for POST)"},
			{Key: "dataPath", Label: "Data Path", Type: "string", Help: "Dot-separated path to the array in the response"},
		},
	}
}

func (s *httpSource) Discover(ctx context.Context, cfg etl.SourceConfig) (*etl.Schema, error) {
	records, err := s.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return etl.InferSchema(records), nil
}

func (s *httpSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Record, <-chan error) {
	return stream(ctx, func(emit func(etl.Record) bool) error {
		records, err := s.fetch(ctx, cfg)
		if err != nil {
			return err
		}
		emitAll(records, emit)
		return nil
	})
}

func (s *httpSource) fetch(ctx context.Context, cfg etl.SourceConfig) ([]etl.Record, error) {
	url := cfg.String("url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	method := strings.ToUpper(cfg.String("method"))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if b := cfg.String("body"); b != "" {
		body = strings.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range parseHeaders(cfg["headers"]) {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return decodeJSONRecords(data, cfg.String("dataPath"))
}

// parseHeaders accepts either a JSON object string or an already decoded object.
func parseHeaders(v any) map[string]string {
	out := map[string]string{}
	switch h := v.(type) {
	case string:
		if h != "" {
			_ = json.Unmarshal([]byte(h), &out)
		}
	case map[string]any:
		for k, val := range h {
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
