package module

import (
	"context"

	"github.com/isgasho/fce/internal/logging"
	"github.com/isgasho/fce/internal/wasmrt"
	"github.com/isgasho/fce/internal/werrors"
	"github.com/isgasho/fce/internal/wit"
)

// Module is one loaded Wasm module: its running instance, its interface
// view (wit.Instance), and the Callables synthesized for its public
// interface-typed exports. The Engine's registry holds one of these per
// registered name.
type Module struct {
	name     string
	rt       *wasmrt.Module
	instance *wit.Instance
	exports  map[string]*wit.Callable
}

// Load runs the full load pipeline: compile, locate and parse the embedded
// interface-types section, instantiate, build the WIT Instance, and
// synthesize a Callable per declared adapter export.
//
// runtime is shared across every module the Engine has loaded so imports
// can resolve against already-instantiated modules. parser and interp are
// the engine-wide external collaborators; resolver lets an import Function
// reach another module's Callable by (moduleName, exportName) without this
// Module needing to know the registry itself.
func Load(
	ctx context.Context,
	rt *wasmrt.Runtime,
	cfg *Config,
	parser wit.SectionParser,
	interp wit.Interpreter,
	resolver wit.Resolver,
	log logging.Logger,
) (*Module, error) {
	log = log.WithFields(logging.Fields{"module": cfg.name})

	compiled, err := rt.Compile(ctx, cfg.raw)
	if err != nil {
		log.Errorf("compile failed: %v", err)
		return nil, err
	}

	section, err := locateAndParseSection(compiled, cfg.name, parser)
	if err != nil {
		_ = compiled.Close(ctx)
		log.Errorf("interface section: %v", err)
		return nil, err
	}

	instantiated, err := rt.Instantiate(ctx, cfg.name, compiled)
	if err != nil {
		_ = compiled.Close(ctx)
		log.Errorf("instantiate failed: %v", err)
		return nil, err
	}

	instance, err := wit.NewInstance(instantiated, section, resolver)
	if err != nil {
		_ = instantiated.Close(ctx)
		return nil, err
	}

	exports := make(map[string]*wit.Callable, len(section.AdapterExports))
	for _, ae := range section.AdapterExports {
		args, outputs, err := section.FunctionTypeAt(ae.FunctionTypeIdx)
		if err != nil {
			_ = instantiated.Close(ctx)
			return nil, err
		}
		signature := wit.FunctionSignature{Name: ae.Name, Arguments: args, Outputs: outputs}
		exports[ae.Name] = wit.NewCallable(ae.Program, signature, instance, interp)
	}

	log.Debugf("loaded, %d adapter exports, %d functions, %d memories",
		len(exports), instance.FunctionCount(), instance.MemoryCount())

	return &Module{name: cfg.name, rt: instantiated, instance: instance, exports: exports}, nil
}

// locateAndParseSection finds the module's single embedded interface-types
// custom section and parses it: zero sections is NoInterfaceSection, more
// than one is MultipleInterfaceSections.
func locateAndParseSection(compiled *wasmrt.Compiled, name string, parser wit.SectionParser) (*wit.Section, error) {
	sections := compiled.CustomSections()[wit.SectionName]
	switch len(sections) {
	case 0:
		return nil, werrors.NoInterfaceSection(name)
	case 1:
		return parser.Parse(sections[0])
	default:
		return nil, werrors.MultipleInterfaceSections(name)
	}
}

// Name returns the name this module is registered under.
func (m *Module) Name() string { return m.name }

// Export looks up a Callable by its declared interface export name.
func (m *Module) Export(name string) (*wit.Callable, bool) {
	c, ok := m.exports[name]
	return c, ok
}

// Exports lists the names of every interface-typed export this module
// publishes, for GetInterface enumeration.
func (m *Module) Exports() []string {
	names := make([]string, 0, len(m.exports))
	for name := range m.exports {
		names = append(names, name)
	}
	return names
}

// Instance returns the module's WIT instance view, for the interpreter's
// cross-function/cross-memory lookups.
func (m *Module) Instance() *wit.Instance { return m.instance }

// Close tears down the underlying running instance. It does not check
// whether other modules still import from this one — unload never
// cascades, and an import that outlives its source module fails at call
// time via Resolver.
func (m *Module) Close(ctx context.Context) error {
	return m.rt.Close(ctx)
}
