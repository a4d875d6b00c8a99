package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const remoteBackendName = "blob"

// HTTPDoer is the subset of *http.Client used by RemoteBackend.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteConfig configures the object store client.
type RemoteConfig struct {
	BaseURL     string
	Prefix      string
	Token       string
	ReadRetries int
	RetryDelay  time.Duration
	Client      HTTPDoer
	Now         func() time.Time
}

// RemoteBackend stores objects in an HTTP object store. Reads are cache busted
// and retried when an intermediate cache answers without a usable body.
type RemoteBackend struct {
	base    *url.URL
	prefix  string
	token   string
	retries int
	delay   time.Duration
	client  HTTPDoer
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRemoteBackend validates cfg and builds a backend.
func NewRemoteBackend(cfg RemoteConfig) (*RemoteBackend, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("storage: invalid remote base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("storage: remote base url %q must be absolute", cfg.BaseURL)
	}
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	retries := cfg.ReadRetries
	if retries < 0 {
		retries = 0
	}
	return &RemoteBackend{
		base:    base,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		token:   cfg.Token,
		retries: retries,
		delay:   cfg.RetryDelay,
		client:  client,
		now:     now,
		sleep:   sleepContext,
	}, nil
}

func (b *RemoteBackend) Name() string {
	return remoteBackendName
}

func (b *RemoteBackend) Location(key string) string {
	return b.objectURL(key).String()
}

func (b *RemoteBackend) objectURL(key string) *url.URL {
	u := *b.base
	u.Path = path.Join("/", b.base.Path, b.prefix, strings.Trim(key, "/"))
	return &u
}

func (b *RemoteBackend) Exists(ctx context.Context, key string) (bool, error) {
	if strings.Trim(key, "/") == "" {
		return false, ErrKeyEmpty
	}
	req, err := b.newRequest(ctx, http.MethodHead, b.bustedURL(key), nil)
	if err != nil {
		return false, &Error{Op: "head", Backend: remoteBackendName, Key: key, Err: err}
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return false, &Error{Op: "head", Backend: remoteBackendName, Key: key, Err: err}
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300, resp.StatusCode == http.StatusNotModified:
		return true, nil
	default:
		return false, &Error{Op: "head", Backend: remoteBackendName, Key: key, Err: statusError(resp)}
	}
}

// Read fetches the object, retrying up to ReadRetries extra times when the
// response is a not-modified answer or an empty body.
func (b *RemoteBackend) Read(ctx context.Context, key string) ([]byte, error) {
	if strings.Trim(key, "/") == "" {
		return nil, ErrKeyEmpty
	}
	attempts := b.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		data, stale, err := b.readOnce(ctx, key)
		if err != nil {
			return nil, err
		}
		if !stale {
			return data, nil
		}
		if attempt < attempts {
			if err := b.sleep(ctx, b.delay*time.Duration(attempt)); err != nil {
				return nil, &Error{Op: "read", Backend: remoteBackendName, Key: key, Err: err}
			}
		}
	}
	return nil, &StaleReadError{Backend: remoteBackendName, Key: key, Attempts: attempts}
}

func (b *RemoteBackend) readOnce(ctx context.Context, key string) ([]byte, bool, error) {
	req, err := b.newRequest(ctx, http.MethodGet, b.bustedURL(key), nil)
	if err != nil {
		return nil, false, &Error{Op: "read", Backend: remoteBackendName, Key: key, Err: err}
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, false, &Error{Op: "read", Backend: remoteBackendName, Key: key, Err: err}
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, &NotFoundError{Backend: remoteBackendName, Key: key}
	case resp.StatusCode == http.StatusNotModified:
		return nil, true, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, false, &Error{Op: "read", Backend: remoteBackendName, Key: key, Err: err}
		}
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, true, nil
		}
		return data, false, nil
	default:
		return nil, false, &Error{Op: "read", Backend: remoteBackendName, Key: key, Err: statusError(resp)}
	}
}

// Write upserts the object. The key is the canonical identity so no random
// suffix is requested and overwrites are allowed. Writes are never retried.
func (b *RemoteBackend) Write(ctx context.Context, key string, data []byte) error {
	if strings.Trim(key, "/") == "" {
		return ErrKeyEmpty
	}
	req, err := b.newRequest(ctx, http.MethodPut, b.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return &Error{Op: "write", Backend: remoteBackendName, Key: key, Err: err}
	}
	req.Header.Set("Content-Type", contentType(key))
	req.Header.Set("X-Add-Random-Suffix", "0")
	req.Header.Set("X-Allow-Overwrite", "1")
	req.ContentLength = int64(len(data))

	resp, err := b.client.Do(req)
	if err != nil {
		return &Error{Op: "write", Backend: remoteBackendName, Key: key, Err: err}
	}
	defer drain(resp)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: "write", Backend: remoteBackendName, Key: key, Err: statusError(resp)}
	}
	return nil
}

func (b *RemoteBackend) bustedURL(key string) *url.URL {
	u := b.objectURL(key)
	query := u.Query()
	query.Set("t", strconv.FormatInt(b.now().UnixNano(), 10))
	query.Set("nonce", uuid.NewString())
	u.RawQuery = query.Encode()
	return u
}

func (b *RemoteBackend) newRequest(ctx context.Context, method string, target *url.URL, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, err
	}
	if method != http.MethodPut {
		req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
		req.Header.Set("Pragma", "no-cache")
		req.Header.Set("Expires", "0")
	}
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return req, nil
}

func contentType(key string) string {
	switch path.Ext(key) {
	case ".json":
		return "application/json"
	case ".go":
		return "text/x-go; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(snippet))
	if msg == "" {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg)
}

func drain(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
