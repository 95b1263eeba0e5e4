// Package werrors holds the engine's error taxonomy: a closed set of failure
// kinds distinguishing Wasm-runtime-origin errors, interface-section parsing
// errors, and registry/usage errors. Every error the engine returns wraps one
// of the sentinels below so callers can classify failures with errors.Is.
package werrors

import "errors"

// Kind identifies which category of the taxonomy an error belongs to.
type Kind int

const (
	// KindRuntimeCompile is returned when the underlying Wasm runtime fails
	// to compile a module's bytecode.
	KindRuntimeCompile Kind = iota
	// KindRuntimeCreation is returned when the runtime fails to create an
	// auxiliary object (table, memory) required before instantiation.
	KindRuntimeCreation
	// KindRuntimeResolve is returned when the runtime cannot resolve a
	// module's raw (non-interface-typed) imports against the supplied
	// import object.
	KindRuntimeResolve
	// KindRuntimeInvoke is returned when invoking a compiled export traps
	// or otherwise fails inside the runtime.
	KindRuntimeInvoke
	// KindPrepareFailed is returned when the pre-compile transformation of
	// module bytes fails (e.g. an invalid memory page ceiling).
	KindPrepareFailed
	// KindNoInterfaceSection is returned when a module has no embedded
	// interface-types section.
	KindNoInterfaceSection
	// KindMultipleInterfaceSections is returned when a module embeds more
	// than one interface-types section.
	KindMultipleInterfaceSections
	// KindInterfaceSectionTrailingBytes is returned when the section parser
	// leaves unconsumed bytes after parsing.
	KindInterfaceSectionTrailingBytes
	// KindInterfaceParseFailed is returned when the section parser itself
	// fails.
	KindInterfaceParseFailed
	// KindIncorrectInterface is returned when the section parses cleanly
	// but its shape does not match what the caller expected (e.g. a type
	// slot expected to be Function was a Record).
	KindIncorrectInterface
	// KindNonUniqueModuleName is returned by Load when the registry already
	// holds a module under the requested name.
	KindNonUniqueModuleName
	// KindNoSuchModule is returned when an operation names a module that is
	// not (or no longer) registered.
	KindNoSuchModule
	// KindNoSuchFunction is returned when an operation names a function
	// that is not exported by the named module.
	KindNoSuchFunction
)

func (k Kind) String() string {
	switch k {
	case KindRuntimeCompile:
		return "runtime_compile"
	case KindRuntimeCreation:
		return "runtime_creation"
	case KindRuntimeResolve:
		return "runtime_resolve"
	case KindRuntimeInvoke:
		return "runtime_invoke"
	case KindPrepareFailed:
		return "prepare_failed"
	case KindNoInterfaceSection:
		return "no_interface_section"
	case KindMultipleInterfaceSections:
		return "multiple_interface_sections"
	case KindInterfaceSectionTrailingBytes:
		return "interface_section_trailing_bytes"
	case KindInterfaceParseFailed:
		return "interface_parse_failed"
	case KindIncorrectInterface:
		return "incorrect_interface"
	case KindNonUniqueModuleName:
		return "non_unique_module_name"
	case KindNoSuchModule:
		return "no_such_module"
	case KindNoSuchFunction:
		return "no_such_function"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is comparisons. Constructors below wrap one of these
// with the offending name or the inner runtime message so the taxonomy is
// both machine-classifiable (errors.Is) and human-readable (Error()).
var (
	ErrRuntimeCompile               = errors.New("wasm runtime: compile failed")
	ErrRuntimeCreation              = errors.New("wasm runtime: creation failed")
	ErrRuntimeResolve               = errors.New("wasm runtime: import resolution failed")
	ErrRuntimeInvoke                = errors.New("wasm runtime: invocation failed")
	ErrPrepareFailed                = errors.New("module preparation failed")
	ErrNoInterfaceSection           = errors.New("module has no interface-types section")
	ErrMultipleInterfaceSections    = errors.New("module has multiple interface-types sections")
	ErrInterfaceSectionTrailingBytes = errors.New("interface-types section has trailing bytes")
	ErrInterfaceParseFailed         = errors.New("interface-types section failed to parse")
	ErrIncorrectInterface           = errors.New("interface-types section has an unexpected shape")
	ErrNonUniqueModuleName          = errors.New("module name already registered")
	ErrNoSuchModule                 = errors.New("no such module")
	ErrNoSuchFunction                = errors.New("no such function")
)

// Error is the concrete type returned by this package: a Kind plus the
// offending name or inner message, and the wrapped sentinel for errors.Is.
type Error struct {
	Kind    Kind
	Detail  string
	sentinel error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.sentinel.Error()
	}
	return e.sentinel.Error() + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.sentinel }

func newErr(kind Kind, sentinel error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, sentinel: sentinel}
}

// RuntimeCompile wraps a textual message from the Wasm runtime's compile step.
func RuntimeCompile(msg string) error { return newErr(KindRuntimeCompile, ErrRuntimeCompile, msg) }

// RuntimeCreation wraps a textual message from the runtime's object-creation step.
func RuntimeCreation(msg string) error { return newErr(KindRuntimeCreation, ErrRuntimeCreation, msg) }

// RuntimeResolve wraps a textual message from the runtime's import-resolution step.
func RuntimeResolve(msg string) error { return newErr(KindRuntimeResolve, ErrRuntimeResolve, msg) }

// RuntimeInvoke wraps a textual message from a failed invocation.
func RuntimeInvoke(msg string) error { return newErr(KindRuntimeInvoke, ErrRuntimeInvoke, msg) }

// PrepareFailed reports a failure in the pre-compile transformation step.
func PrepareFailed(msg string) error { return newErr(KindPrepareFailed, ErrPrepareFailed, msg) }

// NoInterfaceSection reports that name has no embedded interface-types section.
func NoInterfaceSection(name string) error {
	return newErr(KindNoInterfaceSection, ErrNoInterfaceSection, name)
}

// MultipleInterfaceSections reports that name embeds more than one section.
func MultipleInterfaceSections(name string) error {
	return newErr(KindMultipleInterfaceSections, ErrMultipleInterfaceSections, name)
}

// InterfaceSectionTrailingBytes reports unconsumed bytes after parsing name's section.
func InterfaceSectionTrailingBytes(name string) error {
	return newErr(KindInterfaceSectionTrailingBytes, ErrInterfaceSectionTrailingBytes, name)
}

// InterfaceParseFailed wraps the parser's own error message.
func InterfaceParseFailed(msg string) error {
	return newErr(KindInterfaceParseFailed, ErrInterfaceParseFailed, msg)
}

// IncorrectInterface reports a shape mismatch, with detail identifying the culprit.
func IncorrectInterface(detail string) error {
	return newErr(KindIncorrectInterface, ErrIncorrectInterface, detail)
}

// NonUniqueModuleName reports that name is already present in the registry.
func NonUniqueModuleName(name string) error {
	return newErr(KindNonUniqueModuleName, ErrNonUniqueModuleName, name)
}

// NoSuchModule reports that name is not present in the registry.
func NoSuchModule(name string) error {
	return newErr(KindNoSuchModule, ErrNoSuchModule, name)
}

// NoSuchFunction reports that name is not exported by the module being queried.
func NoSuchFunction(name string) error {
	return newErr(KindNoSuchFunction, ErrNoSuchFunction, name)
}

// Is reports whether err belongs to kind, looking through wrapping.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
