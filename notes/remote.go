package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrBadURL is returned when a remote URL is empty, unparsable or not
	// https.
	ErrBadURL = errors.New("notes: missing or invalid remote url")

	// ErrRemote wraps non-success responses from a remote store.
	ErrRemote = errors.New("notes: remote store error")
)

// maxResponse caps how much of a response body is read.
const maxResponse = 1 << 20

// Remote is a Store that talks to a notes HTTP service.
type Remote struct {
	base   string
	token  string
	client *http.Client
}

// RemoteOptions configures a Remote store.
type RemoteOptions struct {
	URL           string
	Token         string
	AllowInsecure bool
	Timeout       time.Duration
	Client        *http.Client
}

// NewRemote creates a remote store. URL and token are cleaned with
// CleanValue, and the URL must be https unless AllowInsecure is set.
func NewRemote(opts RemoteOptions) (*Remote, error) {
	base, err := SanitizeURL(opts.URL, opts.AllowInsecure)
	if err != nil {
		return nil, err
	}
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Remote{base: base, token: CleanValue(opts.Token), client: client}, nil
}

// CleanValue trims whitespace and one pair of surrounding double quotes, as
// left behind by values pasted into environment files.
func CleanValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = s[1 : len(s)-1]
	}
	return s
}

// SanitizeURL cleans raw and checks that it is an absolute https URL (or
// http when allowInsecure). The result has no trailing slash.
func SanitizeURL(raw string, allowInsecure bool) (string, error) {
	s := CleanValue(raw)
	if s == "" {
		return "", ErrBadURL
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadURL, err)
	}
	switch {
	case u.Scheme == "https":
	case u.Scheme == "http" && allowInsecure:
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrBadURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: no host", ErrBadURL)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Get fetches the note for id.
func (r *Remote) Get(ctx context.Context, id string) (Note, error) {
	var n Note
	if err := r.do(ctx, http.MethodGet, id, nil, &n); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Put sends in for id. The server stamps the update time.
func (r *Remote) Put(ctx context.Context, id string, in Input) error {
	body, err := json.Marshal(Sanitize(in))
	if err != nil {
		return fmt.Errorf("encode note: %w", err)
	}
	return r.do(ctx, http.MethodPut, id, body, nil)
}

// Delete removes the note for id.
func (r *Remote) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, id, nil, nil)
}

// Close releases idle connections.
func (r *Remote) Close() error {
	r.client.CloseIdleConnections()
	return nil
}

func (r *Remote) do(ctx context.Context, method, id string, body []byte, out any) error {
	if err := ValidateID(id); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+"/notes/"+url.PathEscape(id), rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s note %s: %w", method, id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s note %s: %d %s", ErrRemote, method, id, resp.StatusCode, e.Error)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode note: %w", err)
		}
	}
	return nil
}
