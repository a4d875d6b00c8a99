package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

type purgePageCommand struct {
	TemplatePath string
}

func (purgePageCommand) Type() string { return "pagebuilder.test.purge_page" }

func (m purgePageCommand) Validate() error {
	if m.TemplatePath == "" {
		return errors.New("template path required")
	}
	return nil
}

// flakyPurger fails until it has been called failures times.
type flakyPurger struct {
	failures int32
	calls    atomic.Int32
	purged   atomic.Value
}

func (p *flakyPurger) purge(_ context.Context, msg purgePageCommand) error {
	if p.calls.Add(1) <= p.failures {
		return errors.New("cache backend unavailable")
	}
	p.purged.Store(msg.TemplatePath)
	return nil
}

func TestDispatchedPurgeRetriesTransientFailures(t *testing.T) {
	purger := &flakyPurger{failures: 1}
	handler := NewHandler(purger.purge, WithTimeout[purgePageCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), purgePageCommand{TemplatePath: "lv/finansejums"}); err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if got := purger.calls.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
	if got, _ := purger.purged.Load().(string); got != "lv/finansejums" {
		t.Fatalf("expected lv/finansejums to be purged, got %q", got)
	}
}

func TestDispatchedPurgeSurfacesExhaustedRetries(t *testing.T) {
	purger := &flakyPurger{failures: 10}
	handler := NewHandler(purger.purge, WithTimeout[purgePageCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(2))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), purgePageCommand{TemplatePath: "en/contacts"}); err == nil {
		t.Fatalf("expected error once retries are exhausted")
	}
	if got := purger.calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}
