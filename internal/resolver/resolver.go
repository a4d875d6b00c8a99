package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-pagebuilder/internal/codec"
	"github.com/goliatone/go-pagebuilder/internal/logging"
	"github.com/goliatone/go-pagebuilder/internal/pagedef"
	"github.com/goliatone/go-pagebuilder/internal/storage"
	"github.com/goliatone/go-pagebuilder/pkg/interfaces"
)

// Mode selects which backend is consulted first.
type Mode string

const (
	// ModeRemotePreferred reads the object store first, then pre-built local sources.
	ModeRemotePreferred Mode = "remote"
	// ModeLocalPreferred reads local sources first, then the object store, syncing hits locally.
	ModeLocalPreferred Mode = "local"
)

// ErrNotFound is returned when no backend holds a usable definition.
var ErrNotFound = errors.New("resolver: template not found")

// NotFoundError carries the reasons resolution failed. Causes other than
// plain absence (decode failures, transport errors) are kept for diagnostics.
type NotFoundError struct {
	Path   string
	Causes []error
	// Primary is the failure reported by the preferred store, if any.
	Primary error
}

func (e *NotFoundError) Error() string {
	if len(e.Causes) == 0 {
		return fmt.Sprintf("resolver: template %q not found", e.Path)
	}
	return fmt.Sprintf("resolver: template %q not found: %v", e.Path, errors.Join(e.Causes...))
}

func (e *NotFoundError) Unwrap() []error {
	return append([]error{ErrNotFound}, e.Causes...)
}

// Store is the subset of pagestore.Store used for resolution.
type Store interface {
	Name() string
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) (pagedef.PageDefinition, error)
	Write(ctx context.Context, def pagedef.PageDefinition) error
}

// Result is a resolved definition and the backend that produced it.
type Result struct {
	Definition pagedef.PageDefinition
	Source     string
	// Synced reports that a copy into the local store was scheduled.
	Synced bool
}

// Config configures a Resolver.
type Config struct {
	Mode   Mode
	Local  Store
	Remote Store
	// Sync materialises remote hits into the local store in local-preferred mode.
	Sync     bool
	Logger   interfaces.Logger
	OnSynced func(path string)
}

// Resolver locates page definitions across the local and remote stores.
type Resolver struct {
	mode     Mode
	local    Store
	remote   Store
	sync     bool
	logger   interfaces.Logger
	onSynced func(path string)
	pending  sync.WaitGroup
	locks    sync.Map
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*resolveOptions)

type resolveOptions struct {
	skipSync bool
}

// WithoutSync resolves without copying a remote hit into the local store.
// Writers use it so the copy can never race their own write.
func WithoutSync() ResolveOption {
	return func(o *resolveOptions) {
		o.skipSync = true
	}
}

// New builds a resolver. Either store may be nil.
func New(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	mode := cfg.Mode
	if mode != ModeRemotePreferred {
		mode = ModeLocalPreferred
	}
	return &Resolver{
		mode:     mode,
		local:    cfg.Local,
		remote:   cfg.Remote,
		sync:     cfg.Sync,
		logger:   logger,
		onSynced: cfg.OnSynced,
	}
}

// Mode reports the configured strategy.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Resolve returns the definition stored for path. Invalid paths are reported
// as not found before any backend is touched.
func (r *Resolver) Resolve(ctx context.Context, path string, opts ...ResolveOption) (Result, error) {
	var options resolveOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	normalized, err := pagedef.ValidatePath(path)
	if err != nil {
		r.logger.Warn("resolver.path.rejected", "path", path, "error", err)
		return Result{}, &NotFoundError{Path: path, Causes: []error{err}}
	}

	var causes []error
	var primary error
	for idx, store := range r.order() {
		def, err := store.Read(ctx, normalized)
		if err == nil {
			result := Result{Definition: def, Source: store.Name()}
			if idx > 0 && !options.skipSync && r.shouldSync(store) {
				r.scheduleSync(ctx, def)
				result.Synced = true
			}
			return result, nil
		}
		if storage.IsNotFound(err) {
			continue
		}
		causes = append(causes, err)
		if idx == 0 {
			primary = err
		}
		log := logging.WithTemplateContext(r.logger, normalized, store.Name(), "resolve")
		if codec.IsDecodeError(err) {
			log.Warn("resolver.decode.failed", "error", err)
			continue
		}
		log.Warn("resolver.read.failed", "error", err)
	}
	return Result{}, &NotFoundError{Path: normalized, Causes: causes, Primary: primary}
}

// Lookup collapses every failure to a missing page.
func (r *Resolver) Lookup(ctx context.Context, path string) (Result, bool) {
	result, err := r.Resolve(ctx, path)
	if err != nil {
		return Result{}, false
	}
	return result, true
}

// Exists reports whether any store holds an artifact for path. Failures of
// the secondary store are ignored.
func (r *Resolver) Exists(ctx context.Context, path string) (bool, error) {
	normalized, err := pagedef.ValidatePath(path)
	if err != nil {
		return false, err
	}
	var primaryErr error
	for idx, store := range r.order() {
		exists, err := store.Exists(ctx, normalized)
		if err != nil {
			logging.WithTemplateContext(r.logger, normalized, store.Name(), "exists").
				Warn("resolver.exists.failed", "error", err)
			if idx == 0 {
				primaryErr = err
			}
			continue
		}
		if exists {
			return true, nil
		}
	}
	return false, primaryErr
}

// LockPath serialises writes to the local copy of path. Background syncs take
// the same lock, so a writer holding it cannot be overwritten by a stale copy.
func (r *Resolver) LockPath(path string) (unlock func()) {
	value, _ := r.locks.LoadOrStore(path, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// WaitSync blocks until scheduled local syncs complete.
func (r *Resolver) WaitSync() {
	r.pending.Wait()
}

func (r *Resolver) order() []Store {
	var stores []Store
	first, second := r.local, r.remote
	if r.mode == ModeRemotePreferred {
		first, second = r.remote, r.local
	}
	if first != nil {
		stores = append(stores, first)
	}
	if second != nil {
		stores = append(stores, second)
	}
	return stores
}

func (r *Resolver) shouldSync(source Store) bool {
	return r.sync && r.mode == ModeLocalPreferred && r.local != nil && source == r.remote
}

// scheduleSync copies def into the local store without blocking the caller.
// A local artifact written in the meantime wins and the copy is dropped.
// Failures are logged and never reach the caller.
func (r *Resolver) scheduleSync(ctx context.Context, def pagedef.PageDefinition) {
	syncCtx := context.WithoutCancel(ctx)
	copied := pagedef.Clone(def)
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		log := logging.WithTemplateContext(r.logger, copied.Path, r.local.Name(), "sync")
		unlock := r.LockPath(copied.Path)
		defer unlock()
		exists, err := r.local.Exists(syncCtx, copied.Path)
		if err != nil {
			log.Warn("resolver.sync.failed", "error", err)
			return
		}
		if exists {
			log.Debug("resolver.sync.skipped")
			return
		}
		if err := r.local.Write(syncCtx, copied); err != nil {
			log.Warn("resolver.sync.failed", "error", err)
			return
		}
		log.Info("resolver.sync.success")
		if r.onSynced != nil {
			r.onSynced(copied.Path)
		}
	}()
}
