package engine

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/handlekit"
	"github.com/wippyai/handlekit/errors"
)

// Config holds configuration for library creation
type Config struct {
	// Name is the guest module instance name. Empty means "handlekit-guest".
	Name string

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

const defaultModuleName = "handlekit-guest"

// Library is a native handle library backed by a wazero guest module.
// It implements handlekit.Library; every call into the guest is serialized.
type Library struct {
	runtime  wazero.Runtime
	module   api.Module
	create   api.Function
	release  api.Function
	isLive   api.Function
	live     api.Function
	released api.Function
	doubles  api.Function
	name     string
	mu       sync.Mutex
	closed   bool
}

// Stats is a snapshot of the guest's counters.
type Stats struct {
	Live           uint32
	Released       uint32
	DoubleReleases uint32
}

// NewLibrary instantiates the built-in guest module.
func NewLibrary(ctx context.Context, cfg *Config) (*Library, error) {
	return LoadLibrary(ctx, GuestBinary(), cfg)
}

// LoadLibrary instantiates a guest module implementing the handle ABI.
func LoadLibrary(ctx context.Context, wasmBytes []byte, cfg *Config) (*Library, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	name := defaultModuleName

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Name != "" {
			name = cfg.Name
		}
	}

	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Load("compile guest module", err)
	}

	if missing := missingExports(compiled.ExportedFunctions()); len(missing) > 0 {
		_ = rt.Close(ctx)
		return nil, errors.NewMissingExportsError(name, missing)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Instantiation(err)
	}

	Logger().Debug("guest library loaded",
		zap.String("module", name),
		zap.Int("bytes", len(wasmBytes)))

	return &Library{
		runtime:  rt,
		module:   mod,
		name:     name,
		create:   mod.ExportedFunction(ExportCreate),
		release:  mod.ExportedFunction(ExportRelease),
		isLive:   mod.ExportedFunction(ExportIsLive),
		live:     mod.ExportedFunction(ExportLive),
		released: mod.ExportedFunction(ExportReleased),
		doubles:  mod.ExportedFunction(ExportDoubleReleases),
	}, nil
}

func missingExports(defs map[string]api.FunctionDefinition) []string {
	var missing []string
	for _, name := range RequiredExports {
		if _, ok := defs[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// Name returns the guest module instance name.
func (l *Library) Name() string {
	return l.name
}

// Create issues a new identifier from the guest.
func (l *Library) Create(ctx context.Context) (handlekit.ID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return handlekit.Null, errors.Closed(errors.PhaseCreate, "guest library")
	}

	results, err := l.create.Call(ctx)
	if err != nil {
		return handlekit.Null, errors.New(errors.PhaseCreate, errors.KindNativeFailure).
			Op(ExportCreate).Cause(err).Build()
	}
	id := api.DecodeU32(results[0])
	if id == 0 {
		return handlekit.Null, errors.Exhausted(MaxHandles)
	}
	debugf("create -> %d", id)
	return handlekit.ID(id), nil
}

// Release returns id to the guest. The guest reports invalid and double
// releases, which surface as errors here.
func (l *Library) Release(ctx context.Context, id handlekit.ID) error {
	if id > math.MaxUint32 {
		return errors.InvalidHandle(errors.PhaseRelease, uint64(id))
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return errors.Closed(errors.PhaseRelease, "guest library")
	}

	results, err := l.release.Call(ctx, api.EncodeU32(uint32(id)))
	if err != nil {
		return errors.New(errors.PhaseRelease, errors.KindNativeFailure).
			Op(ExportRelease).ID(uint64(id)).Cause(err).Build()
	}

	debugf("release %d -> %d", id, api.DecodeU32(results[0]))

	switch api.DecodeU32(results[0]) {
	case StatusOK:
		return nil
	case StatusInvalidHandle:
		return errors.InvalidHandle(errors.PhaseRelease, uint64(id))
	case StatusDoubleRelease:
		return errors.DoubleRelease(uint64(id))
	default:
		return errors.New(errors.PhaseRelease, errors.KindNativeFailure).
			Op(ExportRelease).ID(uint64(id)).Code(api.DecodeI32(results[0])).
			Detail("unknown release status").Build()
	}
}

// IsLive reports whether the guest considers id issued and not released.
func (l *Library) IsLive(ctx context.Context, id handlekit.ID) (bool, error) {
	if id > math.MaxUint32 {
		return false, nil
	}
	v, err := l.call(ctx, l.isLive, ExportIsLive, api.EncodeU32(uint32(id)))
	return v == 1, err
}

// Stats reads the guest counters.
func (l *Library) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var err error
	if s.Live, err = l.call(ctx, l.live, ExportLive); err != nil {
		return Stats{}, err
	}
	if s.Released, err = l.call(ctx, l.released, ExportReleased); err != nil {
		return Stats{}, err
	}
	if s.DoubleReleases, err = l.call(ctx, l.doubles, ExportDoubleReleases); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// Invoke calls a guest export by name with raw i32 arguments.
func (l *Library) Invoke(ctx context.Context, export string, args ...uint32) (uint32, error) {
	fn := l.module.ExportedFunction(export)
	if fn == nil {
		return 0, errors.NotFound(errors.PhaseCall, "export", export)
	}
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = api.EncodeU32(a)
	}
	return l.call(ctx, fn, export, params...)
}

func (l *Library) call(ctx context.Context, fn api.Function, op string, params ...uint64) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return 0, errors.Closed(errors.PhaseCall, "guest library")
	}

	results, err := fn.Call(ctx, params...)
	if err != nil {
		return 0, errors.New(errors.PhaseCall, errors.KindNativeFailure).Op(op).Cause(err).Build()
	}
	if len(results) == 0 {
		return 0, nil
	}
	return api.DecodeU32(results[0]), nil
}

// Close tears down the guest. Identifiers still live are abandoned.
func (l *Library) Close(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.runtime.Close(ctx)
}
