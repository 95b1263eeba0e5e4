package wit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isgasho/fce/internal/wit"
)

func TestNewExportFunctionSynthesizesAnonymousSignature(t *testing.T) {
	export := &fakeRawExport{
		name:    "add",
		params:  []wit.RawType{wit.RawI32, wit.RawI32},
		results: []wit.RawType{wit.RawI32},
		ret:     []wit.RawValue{{Type: wit.RawI32, I32: 7}},
	}
	fn := wit.NewExportFunction(export)

	assert.Equal(t, "add", fn.Name())
	assert.Equal(t, 2, fn.InputsCardinality())
	assert.Equal(t, 1, fn.OutputsCardinality())
	for _, a := range fn.Arguments() {
		assert.Equal(t, "", a.Name)
		assert.Equal(t, wit.S32(), a.Type)
	}

	out, err := fn.Call(context.Background(), []wit.InterfaceValue{wit.ValS32(3), wit.ValS32(4)})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].S64)
}

func TestExportFunctionWrapsRawCallFailure(t *testing.T) {
	export := &fakeRawExport{name: "boom", err: errFakeInterpreter}
	fn := wit.NewExportFunction(export)

	_, err := fn.Call(context.Background(), nil)
	assert.Error(t, err)
}

func TestImportFunctionResolvesEveryCallInsteadOfCaching(t *testing.T) {
	interp := &fakeInterpreter{}
	target := wit.NewCallable(wit.Program{0x2a}, sig("target"), nil, interp)
	resolver := &fakeResolver{callables: map[string]*wit.Callable{
		key("other", "target"): target,
	}}

	fn := wit.NewImportFunction("target", nil, nil, "other", "target", resolver)

	_, err := fn.Call(context.Background(), nil)
	require.NoError(t, err)

	// Replace the registry entry: only a Function that re-resolves reaches the new Callable.
	replacement := &fakeInterpreter{}
	resolver.callables[key("other", "target")] = wit.NewCallable(wit.Program{0x2a}, sig("target"), nil, replacement)

	_, err = fn.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, interp.calls)
	assert.Equal(t, 1, replacement.calls, "every Call must resolve through the registry again")
}

func TestImportFunctionSurfacesResolverFailure(t *testing.T) {
	resolver := &fakeResolver{callables: map[string]*wit.Callable{}}
	fn := wit.NewImportFunction("missing", nil, nil, "other", "missing", resolver)

	_, err := fn.Call(context.Background(), nil)
	assert.Error(t, err)
}
