package wit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isgasho/fce/internal/werrors"
	"github.com/isgasho/fce/internal/wit"
)

func TestNewInstanceExtractsExportsAtLowIndices(t *testing.T) {
	raw := &fakeRawModule{
		exports: map[string]wit.RawExport{
			"run": &fakeRawExport{name: "run", results: []wit.RawType{wit.RawI32}, ret: []wit.RawValue{{Type: wit.RawI32, I32: 1}}},
		},
	}
	b := wit.NewSectionBuilder()
	b.AddExport("run")
	resolver := &fakeResolver{callables: map[string]*wit.Callable{}}

	inst, err := wit.NewInstance(raw, b.Section(), resolver)
	require.NoError(t, err)
	assert.Equal(t, 1, inst.FunctionCount())

	fn, ok := inst.LocalOrImport(0)
	require.True(t, ok)
	assert.Equal(t, "run", fn.Name())
}

func TestNewInstanceFailsWhenDeclaredExportIsMissing(t *testing.T) {
	raw := &fakeRawModule{exports: map[string]wit.RawExport{}}
	b := wit.NewSectionBuilder()
	b.AddExport("ghost")
	resolver := &fakeResolver{callables: map[string]*wit.Callable{}}

	_, err := wit.NewInstance(raw, b.Section(), resolver)
	assert.True(t, werrors.Is(err, werrors.KindNoSuchFunction))
}

func TestNewInstanceSkipsHostImportsButWiresAdapterImports(t *testing.T) {
	raw := &fakeRawModule{exports: map[string]wit.RawExport{}}
	b := wit.NewSectionBuilder()
	ft := b.AddFunctionType(nil, []wit.InterfaceType{wit.S32()})
	b.AddHostImport("env", "abort", ft)
	b.AddModuleImport("other", "double", ft, ft)

	target := wit.NewCallable(nil, sig("double"), nil, &fakeInterpreter{results: []wit.InterfaceValue{wit.ValS32(8)}})
	resolver := &fakeResolver{callables: map[string]*wit.Callable{
		key("other", "double"): target,
	}}

	inst, err := wit.NewInstance(raw, b.Section(), resolver)
	require.NoError(t, err)
	require.Equal(t, 1, inst.FunctionCount(), "host import must be skipped, only the adapter import is wired")

	fn, ok := inst.LocalOrImport(0)
	require.True(t, ok)
	assert.Equal(t, "double", fn.Name())
}

func TestNewInstanceFailsFastWhenImportSourceDoesNotExist(t *testing.T) {
	raw := &fakeRawModule{exports: map[string]wit.RawExport{}}
	b := wit.NewSectionBuilder()
	ft := b.AddFunctionType(nil, nil)
	b.AddModuleImport("missing", "fn", ft, ft)
	resolver := &fakeResolver{callables: map[string]*wit.Callable{}}

	_, err := wit.NewInstance(raw, b.Section(), resolver)
	assert.Error(t, err)
}

func TestNewInstanceCollectsExportedMemory(t *testing.T) {
	raw := &fakeRawModule{
		exports:  map[string]wit.RawExport{},
		memories: map[string]wit.RawMemory{"memory": &fakeRawMemory{buf: make([]byte, 4)}},
	}
	b := wit.NewSectionBuilder()

	inst, err := wit.NewInstance(raw, b.Section(), &fakeResolver{callables: map[string]*wit.Callable{}})
	require.NoError(t, err)
	require.Equal(t, 1, inst.MemoryCount())
	mem, ok := inst.Memory(0)
	require.True(t, ok)
	assert.Equal(t, uint32(4), mem.Len())
}

func TestRecordTypeTableCountsEveryEntryButKeepsOnlyRecords(t *testing.T) {
	raw := &fakeRawModule{exports: map[string]wit.RawExport{}}
	b := wit.NewSectionBuilder()
	b.AddFunctionType(nil, nil)                                    // id 0, not inserted
	rid := b.AddRecordType(wit.RecordType{Name: "Point"})          // id 1
	b.AddFunctionType(nil, nil)                                    // id 2, not inserted
	rid2 := b.AddRecordType(wit.RecordType{Name: "Line"})          // id 3

	inst, err := wit.NewInstance(raw, b.Section(), &fakeResolver{callables: map[string]*wit.Callable{}})
	require.NoError(t, err)

	assert.Equal(t, wit.RecordTypeID(1), rid)
	assert.Equal(t, wit.RecordTypeID(3), rid2)

	rt, ok := inst.RecordByID(rid)
	require.True(t, ok)
	assert.Equal(t, "Point", rt.Name)

	_, ok = inst.RecordByID(0)
	assert.False(t, ok, "a Function type entry must not appear in the record table")
}
