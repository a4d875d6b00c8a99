package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type touchPageCommand struct {
	TemplatePath string
}

func (touchPageCommand) Type() string { return "pagebuilder.test.touch_page" }

func (m touchPageCommand) Validate() error {
	if m.TemplatePath == "" {
		return errors.New("template path required")
	}
	return nil
}

func TestHandlerRunsValidMessage(t *testing.T) {
	var touched string
	h := NewHandler(func(_ context.Context, msg touchPageCommand) error {
		touched = msg.TemplatePath
		return nil
	})

	if err := h.Execute(context.Background(), touchPageCommand{TemplatePath: "lv/par-mums"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if touched != "lv/par-mums" {
		t.Fatalf("expected handler to receive lv/par-mums, got %q", touched)
	}
}

func TestHandlerRejectsInvalidMessageWithCode(t *testing.T) {
	called := false
	h := NewHandler(func(context.Context, touchPageCommand) error {
		called = true
		return nil
	}, WithValidationCode[touchPageCommand]("PAGE_PATH_REQUIRED"))

	err := h.Execute(context.Background(), touchPageCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	var rich *goerrors.Error
	if !errors.As(err, &rich) || rich.TextCode != "PAGE_PATH_REQUIRED" {
		t.Fatalf("expected PAGE_PATH_REQUIRED text code, got %v", err)
	}
	if called {
		t.Fatalf("expected handler not to run when validation fails")
	}
}

func TestHandlerSkipsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler(func(context.Context, touchPageCommand) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, touchPageCommand{TemplatePath: "en/contacts"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatalf("expected handler not to run when context is cancelled")
	}
}

func TestHandlerCategorisesExecutionFailure(t *testing.T) {
	storageErr := errors.New("disk full")
	h := NewHandler(func(context.Context, touchPageCommand) error {
		return storageErr
	})

	err := h.Execute(context.Background(), touchPageCommand{TemplatePath: "en/contacts"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, storageErr) {
		t.Fatalf("expected original error to stay reachable, got %v", err)
	}
}

func TestHandlerTimeoutCancelsSlowWrites(t *testing.T) {
	h := NewHandler(func(ctx context.Context, _ touchPageCommand) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}, WithTimeout[touchPageCommand](10*time.Millisecond))

	err := h.Execute(context.Background(), touchPageCommand{TemplatePath: "lv/lenais"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerReportsTelemetryWithMessageFields(t *testing.T) {
	var got TelemetryInfo
	h := NewHandler(func(context.Context, touchPageCommand) error { return nil },
		WithOperation[touchPageCommand]("touch"),
		WithMessageFields(func(msg touchPageCommand) map[string]any {
			return map[string]any{"template_path": msg.TemplatePath}
		}),
		WithTelemetry(func(_ context.Context, _ touchPageCommand, info TelemetryInfo) {
			got = info
		}),
	)

	if err := h.Execute(context.Background(), touchPageCommand{TemplatePath: "lv/par-mums"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.Status != TelemetryStatusSuccess || got.Operation != "touch" {
		t.Fatalf("unexpected telemetry %+v", got)
	}
	if got.Command != "pagebuilder.test.touch_page" || got.Fields["template_path"] != "lv/par-mums" {
		t.Fatalf("expected command type and fields in telemetry, got %+v", got)
	}
}
