// Package wasmrt wraps github.com/tetratelabs/wazero as the engine's
// underlying Wasm compiler and runtime: compiling and instantiating module
// bytes, locating embedded custom sections, and adapting a running
// instance's exports and memories to the internal/wit package's RawExport,
// RawMemory and RawModule contracts. This package is this engine's only
// point of contact with a concrete Wasm implementation — internal/wit and
// internal/module never import wazero directly.
package wasmrt

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/isgasho/fce/internal/werrors"
)

// Runtime owns one wazero.Runtime shared by every module compiled through
// it, so cross-module linking always happens inside a single wazero
// runtime instance.
type Runtime struct {
	rt wazero.Runtime
}

// New creates a Runtime with custom-section retention enabled, since
// Compiled.CustomSections (below) depends on reading them back off the
// CompiledModule.
func New(ctx context.Context) *Runtime {
	cfg := wazero.NewRuntimeConfig().WithCustomSections(true)
	return &Runtime{rt: wazero.NewRuntimeWithConfig(ctx, cfg)}
}

// Close releases every module and compiled artifact the runtime holds.
func (r *Runtime) Close(ctx context.Context) error {
	return r.rt.Close(ctx)
}

// Compiled wraps a compiled (but not yet instantiated) module. Compilation
// validates the module bytes once, up front, independent of how many
// times the module is later instantiated.
type Compiled struct {
	mod wazero.CompiledModule
}

// Compile validates and compiles raw module bytes, failing with
// werrors.RuntimeCompile on malformed or unsupported bytecode.
func (r *Runtime) Compile(ctx context.Context, raw []byte) (*Compiled, error) {
	mod, err := r.rt.CompileModule(ctx, raw)
	if err != nil {
		return nil, werrors.RuntimeCompile(err.Error())
	}
	return &Compiled{mod: mod}, nil
}

// CustomSections returns every custom section's name and payload, in
// declaration order, used by the module loader to locate the embedded
// interface-types section (and to detect duplicates).
func (c *Compiled) CustomSections() map[string][][]byte {
	out := make(map[string][][]byte)
	for _, s := range c.mod.CustomSections() {
		out[s.Name()] = append(out[s.Name()], s.Data())
	}
	return out
}

// Close releases the compiled artifact.
func (c *Compiled) Close(ctx context.Context) error {
	return c.mod.Close(ctx)
}

// InstantiateHostModule builds and instantiates a host module exporting a
// linear memory named "memory", which later-instantiated modules can import
// from name. It exports no functions; supplying host function imports is
// the embedder's responsibility.
func (r *Runtime) InstantiateHostModule(ctx context.Context, name string, minPages, maxPages uint32) (api.Module, error) {
	builder := r.rt.NewHostModuleBuilder(name)
	if maxPages > 0 {
		builder = builder.ExportMemoryWithMax("memory", minPages, maxPages)
	} else {
		builder = builder.ExportMemory("memory", minPages)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, werrors.RuntimeCreation(err.Error())
	}
	return mod, nil
}

// Instantiate links compiled against whatever other modules are already
// instantiated in this runtime (resolved by wazero via the module's
// declared raw imports) and runs it to completion. Every instantiation
// failure is reported as werrors.RuntimeResolve, including a trapping
// start function; no failure here is reported as werrors.RuntimeInvoke.
func (r *Runtime) Instantiate(ctx context.Context, name string, compiled *Compiled) (*Module, error) {
	cfg := wazero.NewModuleConfig().WithName(name)
	mod, err := r.rt.InstantiateModule(ctx, compiled.mod, cfg)
	if err != nil {
		return nil, werrors.RuntimeResolve(err.Error())
	}
	return &Module{mod: mod}, nil
}
