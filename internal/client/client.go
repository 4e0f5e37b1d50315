// Package client is a small HTTP client for the VIN lookup API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/vinlookup/internal/domain/model"
	"github.com/okian/vinlookup/internal/domain/vin"
)

// DefaultBaseURL matches the server's default listen address.
const DefaultBaseURL = "http://localhost:9080"

const defaultTimeout = 30 * time.Second

// Client talks to a running VIN lookup server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http = &http.Client{Timeout: d}
		}
	}
}

// New returns a client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LookupResult is the answer to a lookup.
type LookupResult struct {
	VINRequested string `json:"vin_requested" yaml:"vin_requested"`
	CachedResult bool   `json:"cached_result" yaml:"cached_result"`
	model.Record `yaml:",inline"`
}

// BatchItem is one entry of a batch answer.
type BatchItem struct {
	Input  string        `json:"input" yaml:"input"`
	Result *LookupResult `json:"result,omitempty" yaml:"result,omitempty"`
	Error  *APIError     `json:"error,omitempty" yaml:"error,omitempty"`
}

// BatchResult is the answer to a batch lookup.
type BatchResult struct {
	Items     []BatchItem `json:"items" yaml:"items"`
	Succeeded int         `json:"succeeded" yaml:"succeeded"`
	Failed    int         `json:"failed" yaml:"failed"`
}

// RemoveResult is the answer to a removal.
type RemoveResult struct {
	VINRequested  string `json:"vin_requested" yaml:"vin_requested"`
	DeleteSuccess bool   `json:"delete_success" yaml:"delete_success"`
}

// ValidateResult is the answer to a validation.
type ValidateResult struct {
	VIN    string     `json:"vin" yaml:"vin"`
	Valid  bool       `json:"valid" yaml:"valid"`
	Reason string     `json:"reason,omitempty" yaml:"reason,omitempty"`
	Detail string     `json:"detail,omitempty" yaml:"detail,omitempty"`
	Parts  *vin.Parts `json:"parts,omitempty" yaml:"parts,omitempty"`
}

// Export is a downloaded export file.
type Export struct {
	Filename    string
	ContentType string
	ETag        string
	Rows        int
	Data        []byte
	// NotModified is set when the server answered 304 to IfNoneMatch.
	NotModified bool
}

// Lookup decodes v on the server.
func (c *Client) Lookup(ctx context.Context, v string, refresh bool) (LookupResult, error) {
	var out LookupResult
	err := c.postJSON(ctx, "/lookup"+refreshQuery(refresh), map[string]string{"vin": v}, &out)
	return out, err
}

// LookupBatch decodes many VINs in one request.
func (c *Client) LookupBatch(ctx context.Context, vins []string, refresh bool) (BatchResult, error) {
	var out BatchResult
	err := c.postJSON(ctx, "/lookup/batch"+refreshQuery(refresh), map[string][]string{"vins": vins}, &out)
	return out, err
}

// Remove deletes the stored record for v.
func (c *Client) Remove(ctx context.Context, v string) (RemoveResult, error) {
	var out RemoveResult
	err := c.postJSON(ctx, "/remove", map[string]string{"vin": v}, &out)
	return out, err
}

// Validate checks v on the server without decoding it.
func (c *Client) Validate(ctx context.Context, v string) (ValidateResult, error) {
	var out ValidateResult
	err := c.postJSON(ctx, "/validate", map[string]string{"vin": v}, &out)
	return out, err
}

// List returns every stored record.
func (c *Client) List(ctx context.Context) ([]model.Record, error) {
	var out struct {
		Records []model.Record `json:"records"`
	}
	if err := c.getJSON(ctx, "/records", &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// Get returns the stored record for v.
func (c *Client) Get(ctx context.Context, v string) (model.Record, error) {
	var out model.Record
	err := c.getJSON(ctx, "/records/"+url.PathEscape(v), &out)
	return out, err
}

// Healthz reports whether the server and its store are up.
func (c *Client) Healthz(ctx context.Context) error {
	var out map[string]string
	return c.getJSON(ctx, "/healthz", &out)
}

// Export downloads the stored records. An empty format selects the server
// default. ifNoneMatch may carry the ETag of a previous download.
func (c *Client) Export(ctx context.Context, format, ifNoneMatch string) (Export, error) {
	path := "/export"
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return Export{}, fmt.Errorf("failed to create request: %w", err)
	}
	if ifNoneMatch != "" {
		req.Header.Set("If-None-Match", ifNoneMatch)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Export{}, err
	}
	defer resp.Body.Close()

	exp := Export{
		ETag:        resp.Header.Get("ETag"),
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    attachmentName(resp.Header.Get("Content-Disposition")),
	}
	exp.Rows, _ = strconv.Atoi(resp.Header.Get("X-Record-Count"))
	switch {
	case resp.StatusCode == http.StatusNotModified:
		exp.NotModified = true
		return exp, nil
	case resp.StatusCode != http.StatusOK:
		return Export{}, decodeError(resp)
	}
	if exp.Data, err = io.ReadAll(resp.Body); err != nil {
		return Export{}, fmt.Errorf("failed to read export: %w", err)
	}
	return exp, nil
}

func refreshQuery(refresh bool) string {
	if refresh {
		return "?refresh=true"
	}
	return ""
}

// attachmentName extracts filename from a Content-Disposition value.
func attachmentName(cd string) string {
	const key = "filename="
	i := strings.Index(cd, key)
	if i < 0 {
		return ""
	}
	return strings.Trim(cd[i+len(key):], `"`)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

// decodeError builds an APIError from a non-2xx response.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Detail: resp.Header.Get("X-Error")}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(body) > 0 {
		_ = json.Unmarshal(body, apiErr)
	}
	return apiErr
}
