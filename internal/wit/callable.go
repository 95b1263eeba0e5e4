package wit

import (
	"context"
	"strconv"

	"github.com/isgasho/fce/internal/werrors"
)

// Callable is a reusable invocation handle for one interface-typed export:
// the interpreter program, its declared signature, and a reference to the
// owning module's Instance. It is shared by value: a Callable may be
// referenced simultaneously from its owning module's export map and from a
// consumer module's import slot. None of its fields are mutated after
// construction, so concurrent sharing needs no locking.
type Callable struct {
	program   Program
	signature FunctionSignature
	instance  *Instance
	interp    Interpreter
}

// NewCallable binds an adapter program to the owning instance and the
// interpreter that will execute it.
func NewCallable(program Program, signature FunctionSignature, instance *Instance, interp Interpreter) *Callable {
	return &Callable{program: program, signature: signature, instance: instance, interp: interp}
}

// Signature returns the callable's declared signature.
func (c *Callable) Signature() FunctionSignature { return c.signature }

// Call validates argument arity and per-argument type compatibility, then
// hands the call to the interpreter. A failure from the interpreter is
// classified as RuntimeInvoke.
func (c *Callable) Call(ctx context.Context, args []InterfaceValue) ([]InterfaceValue, error) {
	if len(args) != len(c.signature.Arguments) {
		return nil, werrors.IncorrectInterface(
			fmtArityMismatch(c.signature.Name, len(c.signature.Arguments), len(args)))
	}
	for i, a := range args {
		want := c.signature.Arguments[i].Type
		if !a.Type.Equal(want) {
			return nil, werrors.IncorrectInterface(
				fmtTypeMismatch(c.signature.Name, i, want, a.Type))
		}
	}

	results, err := c.interp.Execute(ctx, c.program, c.instance, args)
	if err != nil {
		return nil, werrors.RuntimeInvoke(err.Error())
	}
	return results, nil
}

func fmtArityMismatch(name string, want, got int) string {
	return name + ": expected " + strconv.Itoa(want) + " arguments, got " + strconv.Itoa(got)
}

func fmtTypeMismatch(name string, idx int, want, got InterfaceType) string {
	return name + ": argument " + strconv.Itoa(idx) + " expected " + want.String() + ", got " + got.String()
}
