package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goliatone/go-pagebuilder/internal/pagedef"
)

// Saver persists a session payload.
type Saver interface {
	Save(ctx context.Context, payload pagedef.TemplatePayload) error
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, payload pagedef.TemplatePayload) error

func (f SaverFunc) Save(ctx context.Context, payload pagedef.TemplatePayload) error {
	return f(ctx, payload)
}

// SaveError is returned by HTTPSaver when the endpoint rejects the payload.
type SaveError struct {
	Status  int
	Message string
}

func (e *SaveError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("session: save failed with status %d", e.Status)
	}
	return "session: save failed: " + e.Message
}

// HTTPSaver posts payloads as JSON to the save endpoint.
type HTTPSaver struct {
	Endpoint string
	Client   *http.Client
	// Header is applied to every request, typically for authorization.
	Header http.Header
}

func (h HTTPSaver) Save(ctx context.Context, payload pagedef.TemplatePayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for key, values := range h.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return &SaveError{Status: resp.StatusCode, Message: failureMessage(resp.Body)}
}

func failureMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return strings.TrimSpace(string(data))
	}
	parts := make([]string, 0, 2)
	for _, part := range []string{parsed.Message, parsed.Error, parsed.Details} {
		if part != "" && len(parts) < 2 {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ": ")
}
