package wit

import "context"

// Program is the opaque lift/lower adapter bytecode for one interface-typed
// exported function, as produced by the interface-section parser. This
// core never inspects it; it only threads it through to the Interpreter.
type Program []byte

// Interpreter executes lift/lower bytecode. It is an external collaborator:
// this engine only supplies what it needs to run (the Program, the owning
// module's *Instance, and the caller's arguments) and never executes a
// Program itself. Embedders inject a concrete Interpreter (e.g. a real WIT
// interpreter) when constructing the engine; tests inject a fake.
//
// When Execute's Program instructions reference an import function index,
// the interpreter is expected to call back into Instance.LocalOrImport to
// obtain the Function and invoke it, which is how a nested/cross-module
// call happens.
type Interpreter interface {
	Execute(ctx context.Context, program Program, instance *Instance, args []InterfaceValue) ([]InterfaceValue, error)
}
