package fce_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fce "github.com/isgasho/fce"
	"github.com/isgasho/fce/internal/werrors"
	"github.com/isgasho/fce/internal/wit"
)

// echoInterpreter stands in for a real lift/lower interpreter: it returns
// its arguments unchanged, which is enough to exercise load/link/call
// wiring end to end.
type echoInterpreter struct{}

func (echoInterpreter) Execute(_ context.Context, _ wit.Program, _ *wit.Instance, args []wit.InterfaceValue) ([]wit.InterfaceValue, error) {
	return args, nil
}

func appendULEB128(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			return buf
		}
	}
}

func wasmWithInterfaceSection(payload []byte) []byte {
	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}
	var content []byte
	content = appendULEB128(content, uint32(len(wit.SectionName)))
	content = append(content, wit.SectionName...)
	content = append(content, payload...)
	out = append(out, 0x00)
	out = appendULEB128(out, uint32(len(content)))
	out = append(out, content...)
	return out
}

func oneExportModuleBytes(exportName string, outputs []wit.InterfaceType, program wit.Program) []byte {
	b := wit.NewSectionBuilder()
	ft := b.AddFunctionType(nil, outputs)
	b.AddAdapterExport(exportName, ft, program)
	return wasmWithInterfaceSection(b.Bytes())
}

func TestEngineLoadCallGetInterfaceUnload(t *testing.T) {
	ctx := context.Background()
	e := fce.New(ctx, echoInterpreter{})
	defer e.Close(ctx)

	b := wit.NewSectionBuilder()
	ft := b.AddFunctionType([]wit.FunctionArg{{Name: "name", Type: wit.StringT()}}, []wit.InterfaceType{wit.StringT()})
	b.AddAdapterExport("greet", ft, wit.Program{0x01})
	raw := wasmWithInterfaceSection(b.Bytes())
	require.NoError(t, e.Load(ctx, "greeter", raw))

	sigs, err := e.GetInterface("greeter")
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "greet", sigs[0].Name)

	out, err := e.Call(ctx, "greeter", "greet", []wit.InterfaceValue{wit.ValString("hi")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "hi", out[0].Str)

	require.NoError(t, e.Unload(ctx, "greeter"))
	_, err = e.Call(ctx, "greeter", "greet", nil)
	assert.Error(t, err)
}

func TestEngineLoadRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	e := fce.New(ctx, echoInterpreter{})
	defer e.Close(ctx)

	raw := oneExportModuleBytes("fn", nil, nil)
	require.NoError(t, e.Load(ctx, "dup", raw))
	err := e.Load(ctx, "dup", raw)
	assert.Error(t, err)
}

func TestEngineCallModuleNotFoundTakesPrecedenceOverFunctionNotFound(t *testing.T) {
	ctx := context.Background()
	e := fce.New(ctx, echoInterpreter{})
	defer e.Close(ctx)

	_, err := e.Call(ctx, "nowhere", "whatever", nil)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.KindNoSuchModule))

	raw := oneExportModuleBytes("fn", nil, nil)
	require.NoError(t, e.Load(ctx, "present", raw))
	_, err = e.Call(ctx, "present", "missing", nil)
	require.Error(t, err)
	assert.True(t, werrors.Is(err, werrors.KindNoSuchFunction))
}

func TestEngineLinksOneModulesImportToAnothersExport(t *testing.T) {
	ctx := context.Background()
	e := fce.New(ctx, echoInterpreter{})
	defer e.Close(ctx)

	baseRaw := oneExportModuleBytes("double", []wit.InterfaceType{wit.S32()}, wit.Program{0x01})
	require.NoError(t, e.Load(ctx, "base", baseRaw))

	b := wit.NewSectionBuilder()
	ft := b.AddFunctionType(nil, []wit.InterfaceType{wit.S32()})
	b.AddModuleImport("base", "double", ft, ft)
	b.AddAdapterExport("useBase", ft, wit.Program{0x02})
	composedRaw := wasmWithInterfaceSection(b.Bytes())
	require.NoError(t, e.Load(ctx, "composed", composedRaw))

	sigs, err := e.GetInterface("composed")
	require.NoError(t, err)
	require.Len(t, sigs, 1)
	assert.Equal(t, "useBase", sigs[0].Name)
}

func TestEngineRegisterHostModuleRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	e := fce.New(ctx, echoInterpreter{})
	defer e.Close(ctx)

	require.NoError(t, e.RegisterHostModule(ctx, "env", 1, 0))
	assert.Error(t, e.RegisterHostModule(ctx, "env", 1, 0), "registering the same host module name twice must fail")
}

func TestEngineLoadFailsWhenModuleImportSourceIsMissing(t *testing.T) {
	ctx := context.Background()
	e := fce.New(ctx, echoInterpreter{})
	defer e.Close(ctx)

	b := wit.NewSectionBuilder()
	ft := b.AddFunctionType(nil, nil)
	b.AddModuleImport("ghost", "fn", ft, ft)
	raw := wasmWithInterfaceSection(b.Bytes())

	err := e.Load(ctx, "composed", raw)
	assert.Error(t, err)

	_, err = e.GetInterface("composed")
	assert.Error(t, err, "a failed load must not register the module")
}
