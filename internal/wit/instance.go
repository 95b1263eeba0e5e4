package wit

import (
	"github.com/isgasho/fce/internal/werrors"
)

// RawModule is the minimal surface Instance needs from a compiled,
// instantiated Wasm module: lookup of its raw exports and memories by name.
// internal/wasmrt implements this over a wazero api.Module.
type RawModule interface {
	Export(name string) (RawExport, bool)
	MemoryExport(name string) (RawMemory, bool)
	// Memories lists every exported linear memory, in declaration order.
	Memories() []RawMemory
}

// Instance is the WIT-level view of one loaded module's compiled instance:
// the uniform index space of local and imported functions, the set of
// reachable memories, and the record-type table — everything the
// interpreter needs when it executes a Program against this module.
type Instance struct {
	functions   []*Function
	memories    []*Memory
	recordsByID map[RecordTypeID]*RecordType
}

// NewInstance builds an Instance's index space in three phases: raw
// exports first (indices 0..E), then cross-module imports (indices
// E..E+I), then the reachable memories, finishing with the record-type
// table built from the section's full type list.
//
// resolver is consulted once per adapter-typed import, here, to fail fast
// if the source module and its export don't already exist at load time —
// see Resolver's doc comment for why the constructed import Function calls
// back through it again on every invocation instead of caching what
// Resolve returns now.
func NewInstance(raw RawModule, section *Section, resolver Resolver) (*Instance, error) {
	functions, err := extractExports(raw, section)
	if err != nil {
		return nil, err
	}

	imported, err := extractImports(section, resolver)
	if err != nil {
		return nil, err
	}
	functions = append(functions, imported...)

	return &Instance{
		functions:   functions,
		memories:    extractMemories(raw),
		recordsByID: section.RecordTypesByID(),
	}, nil
}

// extractExports wraps every raw export named in the section as a plain
// export Function, in the order the section lists them.
func extractExports(raw RawModule, section *Section) ([]*Function, error) {
	out := make([]*Function, 0, len(section.Exports))
	for _, exp := range section.Exports {
		rawExport, ok := raw.Export(exp.Name)
		if !ok {
			return nil, werrors.NoSuchFunction(exp.Name)
		}
		out = append(out, NewExportFunction(rawExport))
	}
	return out, nil
}

// extractImports filters the section's imports down to the adapter-typed
// ones — a nil AdapterTypeIdx means a host-provided import, silently
// skipped here since supplying it is the embedder's responsibility — and
// constructs an import Function for each, resolving eagerly just once so
// an unsatisfiable import fails at load time rather than at first call.
func extractImports(section *Section, resolver Resolver) ([]*Function, error) {
	var out []*Function
	for _, imp := range section.Imports {
		if imp.AdapterTypeIdx == nil {
			continue
		}

		args, outputs, err := section.FunctionTypeAt(*imp.AdapterTypeIdx)
		if err != nil {
			return nil, err
		}

		if _, err := resolver.Resolve(imp.Namespace, imp.Name); err != nil {
			return nil, err
		}

		out = append(out, NewImportFunction(imp.Name, args, outputs, imp.Namespace, imp.Name, resolver))
	}
	return out, nil
}

// extractMemories collects every memory raw.Memories lists; when that list
// is empty, it falls back to raw's own export named "memory". Memories the
// module imports (such as a host "env" module's memory) are not collected.
func extractMemories(raw RawModule) []*Memory {
	rawMemories := raw.Memories()
	out := make([]*Memory, 0, len(rawMemories)+1)
	for _, m := range rawMemories {
		out = append(out, NewMemory(m))
	}
	if len(out) == 0 {
		if m, ok := raw.MemoryExport("memory"); ok {
			out = append(out, NewMemory(m))
		}
	}
	return out
}

// LocalOrImport returns the function at idx in the instance's uniform index
// space — a local raw export if idx < number of exports, or a cross-module
// import otherwise. This is the lookup the interpreter calls back into when
// a Program instruction references a function by index.
func (i *Instance) LocalOrImport(idx int) (*Function, bool) {
	if idx < 0 || idx >= len(i.functions) {
		return nil, false
	}
	return i.functions[idx], true
}

// FunctionCount returns the size of the instance's function index space.
func (i *Instance) FunctionCount() int { return len(i.functions) }

// Memory returns the memory at idx, if the instance exposes one.
func (i *Instance) Memory(idx int) (*Memory, bool) {
	if idx < 0 || idx >= len(i.memories) {
		return nil, false
	}
	return i.memories[idx], true
}

// MemoryCount returns how many memories the instance exposes.
func (i *Instance) MemoryCount() int { return len(i.memories) }

// RecordByID resolves a record-type table entry by id.
func (i *Instance) RecordByID(id RecordTypeID) (*RecordType, bool) {
	rt, ok := i.recordsByID[id]
	return rt, ok
}
