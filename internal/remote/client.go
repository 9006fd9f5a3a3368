package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/m4sc0/new/internal/branding"
	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
	"github.com/m4sc0/new/internal/store"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 1 << 10

// Client is a registry client bound to one base URL and one local store.
type Client struct {
	baseURL    string
	store      *store.Store
	httpClient *http.Client
	logger     *zerolog.Logger
	userAgent  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (useful for testing or timeouts).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *zerolog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// New creates a Client for the registry at baseURL that reads from and
// writes to s.
func New(baseURL string, s *store.Store, opts ...Option) *Client {
	nop := zerolog.Nop()
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      s,
		httpClient: http.DefaultClient,
		logger:     &nop,
		userAgent:  branding.CLIName() + "-cli",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the registry URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

type listEntry struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Version  string `json:"version"`
}

// List returns every image the registry advertises, sorted by category,
// name, and descending version. Entries that do not form a valid
// reference are skipped.
func (c *Client) List() ([]image.Reference, error) {
	u := c.baseURL + "/list"
	body, status, err := c.get("list", u)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &image.RemoteError{Op: "list", URL: u, StatusCode: status, Body: trimBody(body)}
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &image.RemoteError{Op: "list", URL: u, StatusCode: status, Err: fmt.Errorf("decoding listing: %w", err)}
	}
	if len(envelope.Result) == 0 || string(envelope.Result) == "null" {
		return nil, &image.RemoteError{Op: "list", URL: u, StatusCode: status, Err: fmt.Errorf("listing has no result")}
	}
	var entries map[string]listEntry
	if err := json.Unmarshal(envelope.Result, &entries); err != nil {
		return nil, &image.RemoteError{Op: "list", URL: u, StatusCode: status, Err: fmt.Errorf("decoding listing: %w", err)}
	}

	refs := make([]image.Reference, 0, len(entries))
	for id, e := range entries {
		ref, err := entryReference(id, e)
		if err != nil {
			c.logger.Debug().Str("id", id).Err(err).Msg("skipping listing entry")
			continue
		}
		refs = append(refs, ref)
	}
	image.Sort(refs)
	return refs, nil
}

// entryReference prefers the explicit fields and falls back to the id.
func entryReference(id string, e listEntry) (image.Reference, error) {
	if e.Category != "" && e.Name != "" && e.Version != "" {
		return image.Parse(e.Category+"/"+e.Name+":"+e.Version, false)
	}
	return image.Parse(id, false)
}

// LatestVersion returns the highest version of category/name in the
// registry listing.
func (c *Client) LatestVersion(category, name string) (string, error) {
	refs, err := c.List()
	if err != nil {
		return "", err
	}
	var versions []string
	for _, r := range refs {
		if r.Category == category && r.Name == name {
			versions = append(versions, r.Version)
		}
	}
	latest, ok := image.Latest(versions)
	if !ok {
		return "", fmt.Errorf("%w: no versions of %s/%s at %s", image.ErrNotFound, category, name, c.baseURL)
	}
	return latest, nil
}

// Resolve fills in a missing version from the registry listing.
func (c *Client) Resolve(ref image.Reference) (image.Reference, error) {
	if ref.HasVersion() {
		return ref, nil
	}
	version, err := c.LatestVersion(ref.Category, ref.Name)
	if err != nil {
		return image.Reference{}, err
	}
	return ref.WithVersion(version), nil
}

// FetchMetadata returns the registry's template.json for ref.
func (c *Client) FetchMetadata(ref image.Reference) (*metadata.Record, error) {
	u := c.imageURL("meta", ref)
	body, status, err := c.get("meta", u)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: image %s at %s", image.ErrNotFound, ref, c.baseURL)
	case status != http.StatusOK:
		return nil, &image.RemoteError{Op: "meta", URL: u, StatusCode: status, Body: trimBody(body)}
	}

	record, err := metadata.Parse(body)
	if err != nil {
		return nil, &image.RemoteError{Op: "meta", URL: u, StatusCode: status, Err: err}
	}
	return record, nil
}

func (c *Client) imageURL(op string, ref image.Reference) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.baseURL, op,
		url.PathEscape(ref.Category), url.PathEscape(ref.Name), url.PathEscape(ref.Version))
}

// get performs a GET and returns the full body and status code. Only
// transport failures are returned as errors.
func (c *Client) get(op, u string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	return c.do(op, req)
}

func (c *Client) do(op string, req *http.Request) ([]byte, int, error) {
	req.Header.Set("User-Agent", c.userAgent)
	u := req.URL.String()

	c.logger.Debug().Str("op", op).Str("method", req.Method).Str("url", u).Msg("registry request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &image.RemoteError{Op: op, URL: u, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &image.RemoteError{Op: op, URL: u, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response body: %w", err)}
	}
	c.logger.Debug().Str("op", op).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("registry response")
	return body, resp.StatusCode, nil
}

func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
