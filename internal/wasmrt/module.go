package wasmrt

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/isgasho/fce/internal/werrors"
	"github.com/isgasho/fce/internal/wit"
)

// Module adapts one instantiated wazero api.Module to the wit.RawModule
// contract: export and memory lookups by name, resolved lazily so callers
// never hold a stale reference across a module reload.
type Module struct {
	mod api.Module
}

// Close tears down the running instance, releasing its memory and tables.
func (m *Module) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}

// Export looks up a raw function export by name.
func (m *Module) Export(name string) (wit.RawExport, bool) {
	fn := m.mod.ExportedFunction(name)
	if fn == nil {
		return nil, false
	}
	return &rawExport{name: name, fn: fn}, true
}

// MemoryExport looks up a single exported memory by name.
func (m *Module) MemoryExport(name string) (wit.RawMemory, bool) {
	mem := m.mod.ExportedMemory(name)
	if mem == nil {
		return nil, false
	}
	return &rawMemory{mem: mem}, true
}

// Memories returns the memory this module exports under the name "memory"
// as a single-element slice, or nil when there is none. A memory exported
// under any other name is not listed.
func (m *Module) Memories() []wit.RawMemory {
	if mem := m.mod.ExportedMemory("memory"); mem != nil {
		return []wit.RawMemory{&rawMemory{mem: mem}}
	}
	return nil
}

// rawExport adapts a single api.Function to wit.RawExport.
type rawExport struct {
	name string
	fn   api.Function
}

func (e *rawExport) Name() string { return e.name }

func (e *rawExport) ParamTypes() []wit.RawType {
	return valueTypesToRaw(e.fn.Definition().ParamTypes())
}

func (e *rawExport) ResultTypes() []wit.RawType {
	return valueTypesToRaw(e.fn.Definition().ResultTypes())
}

func (e *rawExport) Call(ctx context.Context, args []wit.RawValue) ([]wit.RawValue, error) {
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = a.Uint64()
	}
	results, err := e.fn.Call(ctx, params...)
	if err != nil {
		return nil, werrors.RuntimeInvoke(err.Error())
	}
	resultTypes := e.fn.Definition().ResultTypes()
	out := make([]wit.RawValue, len(results))
	for i, r := range results {
		out[i] = wit.RawFromUint64(valueTypeToRaw(resultTypes[i]), r)
	}
	return out, nil
}

func valueTypesToRaw(vt []api.ValueType) []wit.RawType {
	out := make([]wit.RawType, len(vt))
	for i, t := range vt {
		out[i] = valueTypeToRaw(t)
	}
	return out
}

func valueTypeToRaw(t api.ValueType) wit.RawType {
	switch t {
	case api.ValueTypeI32:
		return wit.RawI32
	case api.ValueTypeI64:
		return wit.RawI64
	case api.ValueTypeF32:
		return wit.RawF32
	case api.ValueTypeF64:
		return wit.RawF64
	default:
		return wit.RawI32
	}
}

// rawMemory adapts an api.Memory to wit.RawMemory.
type rawMemory struct {
	mem api.Memory
}

func (m *rawMemory) Len() uint32 { return m.mem.Size() }

func (m *rawMemory) ReadByte(offset uint32) (byte, bool) { return m.mem.ReadByte(offset) }

func (m *rawMemory) WriteByte(offset uint32, v byte) bool { return m.mem.WriteByte(offset, v) }

func (m *rawMemory) Read(offset, n uint32) ([]byte, bool) {
	data, ok := m.mem.Read(offset, n)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true
}

func (m *rawMemory) Write(offset uint32, data []byte) bool { return m.mem.Write(offset, data) }
