package wit

import (
	"context"

	"github.com/isgasho/fce/internal/werrors"
)

// RawExport is a handle to one raw (not interface-typed) Wasm export of a
// module's compiled instance: a core function the adapter bytecode can
// invoke by index, or a plain export the engine can invoke directly.
// internal/wasmrt implements this over a wazero api.Function.
type RawExport interface {
	Name() string
	ParamTypes() []RawType
	ResultTypes() []RawType
	Call(ctx context.Context, args []RawValue) ([]RawValue, error)
}

// FunctionKind distinguishes the two kinds of callable function the
// interpreter can invoke: a module's own raw export, or a resolved import
// of another module's export.
type FunctionKind int

const (
	// KindExport wraps a raw Wasm export of the owning module.
	KindExport FunctionKind = iota
	// KindImport wraps a Callable of another loaded module, enabling
	// cross-module interface-typed calls.
	KindImport
)

// Function is the uniform, polymorphic object the interpreter is presented
// with for every entry in an Instance's index space.
type Function struct {
	name      string
	arguments []FunctionArg
	outputs   []InterfaceType
	kind      FunctionKind
	export    RawExport

	moduleName string
	exportName string
	resolver   Resolver
}

// NewExportFunction creates a Function from a raw module export, treating
// its parameters and results as anonymous, positional values.
func NewExportFunction(export RawExport) *Function {
	args := make([]FunctionArg, 0, len(export.ParamTypes()))
	for _, rt := range export.ParamTypes() {
		args = append(args, FunctionArg{Name: "", Type: InterfaceTypeOfRaw(rt)})
	}
	outputs := make([]InterfaceType, 0, len(export.ResultTypes()))
	for _, rt := range export.ResultTypes() {
		outputs = append(outputs, InterfaceTypeOfRaw(rt))
	}
	return &Function{
		name:      export.Name(),
		arguments: args,
		outputs:   outputs,
		kind:      KindExport,
		export:    export,
	}
}

// Resolver looks up the Callable backing moduleName's exportName export.
// Instance.extractImports calls it once at load time to fail fast if the
// source module or export doesn't exist yet; an import Function calls it
// again on every invocation rather than caching the *Callable it got back.
// Holding only the (moduleName, exportName) tuple — never a live pointer —
// means unloading a module that another still imports from surfaces as a
// NoSuchModule/NoSuchFunction failure the next time it's called, not a
// dangling reference.
type Resolver interface {
	Resolve(moduleName, exportName string) (*Callable, error)
}

// NewImportFunction creates a Function from a module import resolved
// against another loaded module's export, by name, through resolver.
// arguments/outputs are the import's adapter function type as declared in
// the importing module's own section, read once at load time.
func NewImportFunction(name string, arguments []FunctionArg, outputs []InterfaceType, moduleName, exportName string, resolver Resolver) *Function {
	return &Function{
		name:         name,
		arguments:    arguments,
		outputs:      outputs,
		kind:         KindImport,
		moduleName:   moduleName,
		exportName:   exportName,
		resolver:     resolver,
	}
}

func (f *Function) Name() string                  { return f.name }
func (f *Function) InputsCardinality() int         { return len(f.arguments) }
func (f *Function) OutputsCardinality() int        { return len(f.outputs) }
func (f *Function) Arguments() []FunctionArg       { return f.arguments }
func (f *Function) Outputs() []InterfaceType       { return f.outputs }
func (f *Function) Kind() FunctionKind             { return f.kind }

// Call invokes the underlying export or import and returns its results. A
// failed raw export call is reported as RuntimeInvoke; an import returns
// the Resolver's or the target Callable's error unchanged.
func (f *Function) Call(ctx context.Context, args []InterfaceValue) ([]InterfaceValue, error) {
	switch f.kind {
	case KindExport:
		raw := make([]RawValue, len(args))
		for i, a := range args {
			rv, err := InterfaceValueToRaw(a)
			if err != nil {
				return nil, err
			}
			raw[i] = rv
		}
		results, err := f.export.Call(ctx, raw)
		if err != nil {
			return nil, werrors.RuntimeInvoke(err.Error())
		}
		out := make([]InterfaceValue, len(results))
		for i, r := range results {
			out[i] = RawToInterfaceValue(r)
		}
		return out, nil
	case KindImport:
		callable, err := f.resolver.Resolve(f.moduleName, f.exportName)
		if err != nil {
			return nil, err
		}
		return callable.Call(ctx, args)
	default:
		return nil, werrors.IncorrectInterface("unknown WIT function kind")
	}
}
