// Package fce implements a multi-module WebAssembly execution engine with
// a WIT (Wasm Interface Types) adapter bridge: a registry that loads
// independently-compiled Wasm modules, links their interface-typed exports
// and imports together by name, and dispatches calls through the
// (externally supplied) lift/lower interpreter.
package fce

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/isgasho/fce/internal/logging"
	"github.com/isgasho/fce/internal/module"
	"github.com/isgasho/fce/internal/wasmrt"
	"github.com/isgasho/fce/internal/werrors"
	"github.com/isgasho/fce/internal/wit"
)

// Engine is the module registry: every public operation (Load, Unload,
// Call, GetInterface) is defined against the set of currently registered
// modules. The concurrency model is single-threaded cooperative — callers
// are expected to serialize their own calls into a module's exports — but
// the registry itself still guards concurrent Load/Unload from concurrent
// Call/GetInterface with a mutex.
type Engine struct {
	mu      sync.RWMutex
	modules map[string]*module.Module

	runtime *wasmrt.Runtime
	parser  wit.SectionParser
	interp  wit.Interpreter
	log     logging.Logger
}

// defaultSectionCacheSize bounds the default CachingSectionParser's LRU,
// generous enough for any realistic number of distinct module binaries
// loaded over an Engine's lifetime while staying bounded.
const defaultSectionCacheSize = 256

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithSectionParser overrides the interface-types section parser. Defaults
// to wit.DefaultSectionParser{} (this repository's own reference encoding)
// wrapped in a wit.CachingSectionParser;
// embedders producing modules with a real WIT grammar must supply their
// own parser here.
func WithSectionParser(p wit.SectionParser) Option {
	return func(e *Engine) { e.parser = p }
}

// WithLogger overrides the engine's logger. Defaults to a no-op logger.
func WithLogger(log logging.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New constructs an Engine with an empty registry. interp is the
// (externally supplied) lift/lower bytecode interpreter every adapter
// export's Callable is bound to; this core never executes Program bytes
// itself.
func New(ctx context.Context, interp wit.Interpreter, opts ...Option) *Engine {
	e := &Engine{
		modules: make(map[string]*module.Module),
		runtime: wasmrt.New(ctx),
		parser:  wit.NewCachingSectionParser(wit.DefaultSectionParser{}, defaultSectionCacheSize),
		interp:  interp,
		log:     logging.NewNoOp(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load compiles, instantiates and links raw Wasm module bytes under name.
// A name may be registered at most once at any time, and every
// adapter-typed import must resolve against an already-registered
// module's export. Name collisions and a failed load both leave the
// registry unchanged.
func (e *Engine) Load(ctx context.Context, name string, raw []byte, opts ...func(*module.Config) *module.Config) error {
	e.mu.RLock()
	_, exists := e.modules[name]
	e.mu.RUnlock()
	if exists {
		return werrors.NonUniqueModuleName(name)
	}

	cfg := module.NewConfig(name, raw)
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	built, err := cfg.Build()
	if err != nil {
		return err
	}

	loadID := uuid.New().String()
	log := e.log.WithFields(logging.Fields{"load_id": loadID})
	log.Debugf("loading module %q", name)

	mod, err := module.Load(ctx, e.runtime, built, e.parser, e.interp, e, log)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if _, exists := e.modules[name]; exists {
		e.mu.Unlock()
		_ = mod.Close(ctx)
		return werrors.NonUniqueModuleName(name)
	}
	e.modules[name] = mod
	e.mu.Unlock()

	log.Debugf("module %q loaded with %d interface exports", name, len(mod.Exports()))
	return nil
}

// RegisterHostModule instantiates a minimal host module under name,
// exporting a linear memory of the given size, for embedders that need to
// satisfy a loaded module's raw (non-adapter-typed) imports — e.g. the
// conventional "env" module many Wasm producers import memory from.
// Resolving any other host-provided function imports is out of this
// engine's scope; this covers the common memory-only case.
func (e *Engine) RegisterHostModule(ctx context.Context, name string, minPages, maxPages uint32) error {
	_, err := e.runtime.InstantiateHostModule(ctx, name, minPages, maxPages)
	return err
}

// Unload removes name from the registry and closes its running instance.
// It does not check whether other modules still import from it: unload
// never cascades, and any still-live import fails at call time with
// NoSuchModule.
func (e *Engine) Unload(ctx context.Context, name string) error {
	e.mu.Lock()
	mod, ok := e.modules[name]
	if !ok {
		e.mu.Unlock()
		return werrors.NoSuchModule(name)
	}
	delete(e.modules, name)
	e.mu.Unlock()

	e.log.Debugf("unloading module %q", name)
	return mod.Close(ctx)
}

// Call invokes moduleName's exportName interface-typed export with args,
// returning NoSuchModule if the module is not registered and
// NoSuchFunction if the module exists but does not publish that export —
// module lookup takes precedence over function lookup.
func (e *Engine) Call(ctx context.Context, moduleName, exportName string, args []wit.InterfaceValue) ([]wit.InterfaceValue, error) {
	callable, err := e.Resolve(moduleName, exportName)
	if err != nil {
		return nil, err
	}
	return callable.Call(ctx, args)
}

// GetInterface reports the signatures of every interface-typed export
// moduleName publishes, or NoSuchModule if it is not registered.
func (e *Engine) GetInterface(moduleName string) ([]wit.FunctionSignature, error) {
	e.mu.RLock()
	mod, ok := e.modules[moduleName]
	e.mu.RUnlock()
	if !ok {
		return nil, werrors.NoSuchModule(moduleName)
	}

	names := mod.Exports()
	out := make([]wit.FunctionSignature, 0, len(names))
	for _, name := range names {
		callable, _ := mod.Export(name)
		out = append(out, callable.Signature())
	}
	return out, nil
}

// Resolve implements wit.Resolver against this engine's registry: it is
// how an import Function reaches another loaded module's Callable, both
// once at that importing module's load time and again on every subsequent
// invocation.
func (e *Engine) Resolve(moduleName, exportName string) (*wit.Callable, error) {
	e.mu.RLock()
	mod, ok := e.modules[moduleName]
	e.mu.RUnlock()
	if !ok {
		return nil, werrors.NoSuchModule(moduleName)
	}

	callable, ok := mod.Export(exportName)
	if !ok {
		return nil, werrors.NoSuchFunction(fmt.Sprintf("%s::%s", moduleName, exportName))
	}
	return callable, nil
}

// Close unloads every registered module and releases the shared runtime.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	names := make([]string, 0, len(e.modules))
	for name := range e.modules {
		names = append(names, name)
	}
	e.mu.Unlock()

	for _, name := range names {
		if err := e.Unload(ctx, name); err != nil {
			return err
		}
	}
	return e.runtime.Close(ctx)
}
