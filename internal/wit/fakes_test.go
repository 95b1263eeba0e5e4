package wit_test

import (
	"context"
	"errors"

	"github.com/isgasho/fce/internal/werrors"
	"github.com/isgasho/fce/internal/wit"
)

// fakeInterpreter is a stand-in for the real lift/lower interpreter, which
// is out of this core's scope. It either echoes its arguments back or
// returns a configured error, enough to exercise Callable/Function/Instance
// without a real adapter bytecode executor.
type fakeInterpreter struct {
	results []wit.InterfaceValue
	err     error
	calls   int
}

func (f *fakeInterpreter) Execute(_ context.Context, _ wit.Program, _ *wit.Instance, args []wit.InterfaceValue) ([]wit.InterfaceValue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	return args, nil
}

var errFakeInterpreter = errors.New("fake interpreter failure")

// fakeRawExport is a stand-in for a wasmrt export, used to test
// WITFunction::Export without a real compiled module.
type fakeRawExport struct {
	name    string
	params  []wit.RawType
	results []wit.RawType
	ret     []wit.RawValue
	err     error
}

func (f *fakeRawExport) Name() string             { return f.name }
func (f *fakeRawExport) ParamTypes() []wit.RawType  { return f.params }
func (f *fakeRawExport) ResultTypes() []wit.RawType { return f.results }
func (f *fakeRawExport) Call(_ context.Context, _ []wit.RawValue) ([]wit.RawValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ret, nil
}

// fakeRawModule is a stand-in for a wasmrt module, used to test Instance
// construction without a real compiled module.
type fakeRawModule struct {
	exports  map[string]wit.RawExport
	memories map[string]wit.RawMemory
}

func (f *fakeRawModule) Export(name string) (wit.RawExport, bool) {
	e, ok := f.exports[name]
	return e, ok
}

func (f *fakeRawModule) MemoryExport(name string) (wit.RawMemory, bool) {
	m, ok := f.memories[name]
	return m, ok
}

func (f *fakeRawModule) Memories() []wit.RawMemory {
	var out []wit.RawMemory
	for _, m := range f.memories {
		out = append(out, m)
	}
	return out
}

// fakeRawMemory is a tiny in-process byte slice standing in for wasm
// linear memory.
type fakeRawMemory struct {
	buf []byte
}

func (m *fakeRawMemory) Len() uint32 { return uint32(len(m.buf)) }

func (m *fakeRawMemory) ReadByte(offset uint32) (byte, bool) {
	if offset >= uint32(len(m.buf)) {
		return 0, false
	}
	return m.buf[offset], true
}

func (m *fakeRawMemory) WriteByte(offset uint32, v byte) bool {
	if offset >= uint32(len(m.buf)) {
		return false
	}
	m.buf[offset] = v
	return true
}

func (m *fakeRawMemory) Read(offset, n uint32) ([]byte, bool) {
	if uint64(offset)+uint64(n) > uint64(len(m.buf)) {
		return nil, false
	}
	return m.buf[offset : offset+n], true
}

func (m *fakeRawMemory) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.buf)) {
		return false
	}
	copy(m.buf[offset:], data)
	return true
}

// fakeResolver is a stand-in for the Engine's registry-backed Resolver.
type fakeResolver struct {
	callables map[string]*wit.Callable
}

func key(moduleName, exportName string) string { return moduleName + "::" + exportName }

func (f *fakeResolver) Resolve(moduleName, exportName string) (*wit.Callable, error) {
	c, ok := f.callables[key(moduleName, exportName)]
	if !ok {
		return nil, werrors.NoSuchModule(moduleName)
	}
	return c, nil
}
