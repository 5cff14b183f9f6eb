// Package client talks to a console server over its REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"console/internal/domain"
	"console/internal/preference"
	"console/internal/service"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Unwrap lets callers test a 404 with errors.Is(err, domain.ErrNotFound).
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return domain.ErrNotFound
	}
	return nil
}

// Config configures a Client.
type Config struct {
	BaseURL string
	UserID  string // sent as X-User-ID
	Timeout time.Duration
}

// Client is a REST client for one app.
type Client struct {
	http    *http.Client
	baseURL string
	userID  string
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		userID:  cfg.UserID,
	}
}

func appPath(appID string, parts ...string) string {
	p := "/api/apps/" + url.PathEscape(appID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// ── Entity types (collections) ─────────────────────────────

func (c *Client) GetEntityType(ctx context.Context, appID, name string) (*domain.DynamicCollection, error) {
	var out domain.DynamicCollection
	if err := c.do(ctx, http.MethodGet, appPath(appID, "collections", name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListEntityTypes(ctx context.Context, appID string) ([]domain.DynamicCollection, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, appPath(appID, "collections"), nil, &raw); err != nil {
		return nil, err
	}
	items, err := UnwrapList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DynamicCollection, 0, len(items))
	for _, item := range items {
		var col domain.DynamicCollection
		if err := json.Unmarshal(item, &col); err != nil {
			return nil, fmt.Errorf("decode collection: %w", err)
		}
		out = append(out, col)
	}
	return out, nil
}

func (c *Client) CreateEntityType(ctx context.Context, appID string, in service.CollectionInput) (*domain.DynamicCollection, error) {
	var out domain.DynamicCollection
	if err := c.do(ctx, http.MethodPost, appPath(appID, "collections"), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEntityType(ctx context.Context, appID, name string, in service.CollectionInput) (*domain.DynamicCollection, error) {
	var out domain.DynamicCollection
	if err := c.do(ctx, http.MethodPut, appPath(appID, "collections", name), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEntityType(ctx context.Context, appID, name string) error {
	return c.do(ctx, http.MethodDelete, appPath(appID, "collections", name), nil, nil)
}

// ── Entities (records) ─────────────────────────────────────

func (c *Client) GetEntities(ctx context.Context, appID, collection string) ([]domain.Record, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, appPath(appID, "collections", collection, "records"), nil, &raw); err != nil {
		return nil, err
	}
	items, err := UnwrapList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(items))
	for _, item := range items {
		var rec domain.Record
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (c *Client) CreateEntity(ctx context.Context, appID, collection string, data domain.Record) (domain.Record, error) {
	var out domain.Record
	if err := c.do(ctx, http.MethodPost, appPath(appID, "collections", collection, "records"), data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateEntity(ctx context.Context, appID, collection, id string, data domain.Record) (domain.Record, error) {
	var out domain.Record
	if err := c.do(ctx, http.MethodPut, appPath(appID, "collections", collection, "records", id), data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteEntity(ctx context.Context, appID, collection, id string) error {
	return c.do(ctx, http.MethodDelete, appPath(appID, "collections", collection, "records", id), nil, nil)
}

// ── Uploads ────────────────────────────────────────────────

// UploadFile posts r as the multipart field "file" and returns its URL.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploads", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// Upload implements form.Uploader.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	return c.UploadFile(ctx, filename, r)
}

// ── Preferences ────────────────────────────────────────────

func (c *Client) GetViewPreference(ctx context.Context, appID, key string) (string, error) {
	var out struct {
		Value string `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, appPath(appID, "preferences", key), nil, &out); err != nil {
		return "", err
	}
	return out.Value, nil
}

func (c *Client) SaveViewPreference(ctx context.Context, appID, key, value string) error {
	return c.do(ctx, http.MethodPut, appPath(appID, "preferences", key), map[string]string{"value": value}, nil)
}

// Preferences returns a preference.Store backed by the server.
func (c *Client) Preferences(appID string) preference.Store {
	return &remotePreferences{client: c, appID: appID}
}

type remotePreferences struct {
	client *Client
	appID  string
}

func (p *remotePreferences) Get(ctx context.Context, key string) (string, error) {
	v, err := p.client.GetViewPreference(ctx, p.appID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", preference.ErrNotFound
	}
	return v, err
}

func (p *remotePreferences) Save(ctx context.Context, key, value string) error {
	return p.client.SaveViewPreference(ctx, p.appID, key, value)
}

// ── Transport ──────────────────────────────────────────────

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if c.userID != "" {
		req.Header.Set("X-User-ID", c.userID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
