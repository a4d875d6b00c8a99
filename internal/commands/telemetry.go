package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// TelemetryStatus is the outcome of a single command execution.
type TelemetryStatus string

const (
	TelemetryStatusSuccess      TelemetryStatus = "success"
	TelemetryStatusFailed       TelemetryStatus = "failed"
	TelemetryStatusContextError TelemetryStatus = "context_error"
)

// TelemetryInfo is handed to telemetry callbacks once a command finishes.
type TelemetryInfo struct {
	Command   string
	Operation string
	// Fields holds the message fields, e.g. template_path.
	Fields   map[string]any
	Duration time.Duration
	Error    error
	Status   TelemetryStatus
	Logger   interfaces.Logger
}

type Telemetry[T command.Message] func(ctx context.Context, msg T, info TelemetryInfo)

// DefaultTelemetry logs every outcome as a single event carrying the elapsed
// time. Cancellations are logged at Warn since the caller chose to stop.
func DefaultTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	if logger == nil {
		logger = logging.NoOp()
	}
	return func(ctx context.Context, _ T, info TelemetryInfo) {
		entry := logging.WithFields(logger, info.Fields).WithContext(ctx)
		elapsed := []any{"elapsed", info.Duration}
		switch info.Status {
		case TelemetryStatusSuccess:
			entry.Info("command.execute.success", elapsed...)
		case TelemetryStatusContextError:
			entry.Warn("command.execute.context_error", append(elapsed, "error", info.Error)...)
		default:
			entry.Error("command.execute.failed", append(elapsed, "error", info.Error)...)
		}
	}
}
