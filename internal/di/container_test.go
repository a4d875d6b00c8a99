package di_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/goliatone/go-pagebuilder/internal/di"
	ditesting "github.com/goliatone/go-pagebuilder/internal/di/testing"
	"github.com/goliatone/go-pagebuilder/internal/logging/gologger"
	"github.com/goliatone/go-pagebuilder/internal/runtimeconfig"
)

const adminToken = "secret"

func newHandler(t *testing.T, container *di.Container) http.Handler {
	t.Helper()
	handler, err := container.Handler()
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return handler
}

func send(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func createBody(path string) map[string]any {
	return map[string]any{
		"templatePath": path,
		"content":      map[string]any{},
		"addedComponents": []map[string]any{
			{"id": "intro-1", "componentKey": "intro", "props": map[string]any{"lang": "lv"}},
		},
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Mode = runtimeconfig.ModeRemote

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrRemoteBaseURLRequired) {
		t.Fatalf("expected remote url error, got %v", err)
	}
}

func TestLocalModeWritesGeneratedSource(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Mode = runtimeconfig.ModeLocal
	cfg.Auth.Token = adminToken
	fs := memfs.New()
	rec := newRecordingProvider()

	container, err := di.NewContainer(cfg, di.WithLocalFilesystem(fs), di.WithLoggerProvider(rec))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	handler := newHandler(t, container)

	if res := send(t, handler, http.MethodPost, "/api/admin/templates/create", createBody("lv/par-mums")); res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	source, err := util.ReadFile(fs, "lv/par-mums/page.go")
	if err != nil {
		t.Fatalf("expected generated source on disk: %v", err)
	}
	if !bytes.Contains(source, []byte("intro-1")) {
		t.Fatalf("expected instance in generated source, got %s", source)
	}

	view := send(t, handler, http.MethodGet, "/lv/par-mums", nil)
	if view.Code != http.StatusOK || !strings.Contains(view.Body.String(), "template-lv-par-mums") {
		t.Fatalf("expected rendered page, got %d %s", view.Code, view.Body.String())
	}

	entry := rec.find("container.configured")
	if entry == nil {
		t.Fatalf("expected container.configured entry, got %#v", rec.entries)
	}
	if entry.fields["mode"] != runtimeconfig.ModeLocal || entry.fields["local_codec"] != "source" {
		t.Fatalf("unexpected container fields %v", entry.fields)
	}
}

func TestRemoteModeWritesToObjectStore(t *testing.T) {
	store := ditesting.NewObjectStore()
	srv := store.Serve(t)
	cfg := ditesting.RemoteConfig(srv)
	cfg.Auth.Token = adminToken

	container, err := di.NewContainer(cfg,
		di.WithLocalFilesystem(memfs.New()),
		di.WithHTTPClient(srv.Client()),
		di.WithLoggerProvider(newRecordingProvider()),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.Mode() != runtimeconfig.ModeRemote || container.RemoteStore() == nil {
		t.Fatalf("expected remote mode, got %s", container.Mode())
	}
	handler := newHandler(t, container)

	if res := send(t, handler, http.MethodPost, "/api/admin/templates/create", createBody("lv/jauna-lapa")); res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if _, ok := store.Object("/templates/lv/jauna-lapa.json"); !ok {
		t.Fatalf("expected object upload, got requests %+v", store.Requests())
	}

	res := send(t, handler, http.MethodGet, "/api/templates/render?path=lv/jauna-lapa", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var data struct {
		Source          string           `json:"source"`
		AddedComponents []map[string]any `json:"addedComponents"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode render data: %v", err)
	}
	if data.Source != "blob" || len(data.AddedComponents) != 1 {
		t.Fatalf("unexpected render data %+v", data)
	}
}

func TestAutoModeWithoutRemoteStaysLocal(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()

	container, err := di.NewContainer(cfg,
		di.WithHosted(true),
		di.WithLocalFilesystem(memfs.New()),
		di.WithLoggerProvider(newRecordingProvider()),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	if container.Mode() != runtimeconfig.ModeLocal {
		t.Fatalf("expected local fallback, got %s", container.Mode())
	}
}

func TestDatabaseLanguagesAreSeeded(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Mode = runtimeconfig.ModeLocal
	cfg.Languages.Source = runtimeconfig.LanguagesDatabase
	cfg.Languages.DSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	cfg.Languages.Supported = []string{"lv", "en", "ru"}

	container, err := di.NewContainer(cfg,
		di.WithLocalFilesystem(memfs.New()),
		di.WithLoggerProvider(newRecordingProvider()),
	)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	ctx := context.Background()
	catalog := container.Languages()
	if !catalog.IsSupported(ctx, "ru") || catalog.IsSupported(ctx, "de") {
		t.Fatalf("unexpected supported languages %v", catalog.Supported(ctx))
	}
	if catalog.Default(ctx) != "lv" {
		t.Fatalf("expected lv default, got %s", catalog.Default(ctx))
	}
}

func TestGoLoggerProviderFromConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Mode = runtimeconfig.ModeLocal
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := di.NewContainer(cfg, di.WithLocalFilesystem(memfs.New()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	if _, ok := container.LoggerProvider().(*gologger.Provider); !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
}
