package wit

import "encoding/binary"

// SectionBuilder constructs a well-formed interface-types section payload
// in this package's reference encoding (see DefaultSectionParser), for use
// by tests and by any embedder that wants to emit this encoding instead of
// writing their own grammar/parser pair.
type SectionBuilder struct {
	types    []TypeEntry
	exports  []Export
	imports  []Import
	adapters []AdapterExport
}

// NewSectionBuilder starts an empty section.
func NewSectionBuilder() *SectionBuilder { return &SectionBuilder{} }

// AddFunctionType appends a Function type entry and returns its index.
func (b *SectionBuilder) AddFunctionType(args []FunctionArg, outputs []InterfaceType) int {
	b.types = append(b.types, TypeEntry{Kind: TypeEntryFunction, FuncArguments: args, FuncOutputs: outputs})
	return len(b.types) - 1
}

// AddRecordType appends a Record type entry and returns its RecordTypeID.
func (b *SectionBuilder) AddRecordType(rt RecordType) RecordTypeID {
	b.types = append(b.types, TypeEntry{Kind: TypeEntryRecord, Record: rt})
	return RecordTypeID(len(b.types) - 1)
}

// AddExport declares a raw export by name.
func (b *SectionBuilder) AddExport(name string) {
	b.exports = append(b.exports, Export{Name: name})
}

// AddHostImport declares a raw (host-provided) import, skipped by
// Instance construction.
func (b *SectionBuilder) AddHostImport(namespace, name string, functionTypeIdx int) {
	b.imports = append(b.imports, Import{Namespace: namespace, Name: name, FunctionTypeIdx: functionTypeIdx})
}

// AddModuleImport declares an adapter-typed import resolved against
// another loaded module's export at load time.
func (b *SectionBuilder) AddModuleImport(moduleName, exportName string, functionTypeIdx, adapterTypeIdx int) {
	v := adapterTypeIdx
	b.imports = append(b.imports, Import{
		Namespace: moduleName, Name: exportName, FunctionTypeIdx: functionTypeIdx, AdapterTypeIdx: &v,
	})
}

// AddAdapterExport declares a public interface-typed export.
func (b *SectionBuilder) AddAdapterExport(name string, functionTypeIdx int, program Program) {
	b.adapters = append(b.adapters, AdapterExport{Name: name, FunctionTypeIdx: functionTypeIdx, Program: program})
}

// Section returns the constructed AST directly, without a round-trip
// through Bytes/Parse — useful when a test wants to bypass the codec.
func (b *SectionBuilder) Section() *Section {
	return &Section{Types: b.types, Exports: b.exports, Imports: b.imports, AdapterExports: b.adapters}
}

// Bytes encodes the section in DefaultSectionParser's layout.
func (b *SectionBuilder) Bytes() []byte {
	var w writer

	w.u32(uint32(len(b.types)))
	for _, t := range b.types {
		switch t.Kind {
		case TypeEntryFunction:
			w.u8(0)
			w.u32(uint32(len(t.FuncArguments)))
			for _, a := range t.FuncArguments {
				w.arg(a)
			}
			w.u32(uint32(len(t.FuncOutputs)))
			for _, o := range t.FuncOutputs {
				w.itype(o)
			}
		case TypeEntryRecord:
			w.u8(1)
			w.str(t.Record.Name)
			w.u32(uint32(len(t.Record.Fields)))
			for _, f := range t.Record.Fields {
				w.arg(f)
			}
		}
	}

	w.u32(uint32(len(b.exports)))
	for _, e := range b.exports {
		w.str(e.Name)
	}

	w.u32(uint32(len(b.imports)))
	for _, imp := range b.imports {
		w.str(imp.Namespace)
		w.str(imp.Name)
		w.u32(uint32(imp.FunctionTypeIdx))
		if imp.AdapterTypeIdx != nil {
			w.u8(1)
			w.u32(uint32(*imp.AdapterTypeIdx))
		} else {
			w.u8(0)
		}
	}

	w.u32(uint32(len(b.adapters)))
	for _, ae := range b.adapters {
		w.str(ae.Name)
		w.u32(uint32(ae.FunctionTypeIdx))
		w.u32(uint32(len(ae.Program)))
		w.bytes(ae.Program)
	}

	return w.buf
}

// writer is the encode-side counterpart of reader, in section.go.
type writer struct {
	buf []byte
}

func (w *writer) u8(v byte) { w.buf = append(w.buf, v) }

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *writer) itype(t InterfaceType) {
	w.u8(byte(t.Tag))
	switch t.Tag {
	case TagArray:
		w.itype(*t.Elem)
	case TagRecord:
		w.u32(uint32(t.Record))
	}
}

func (w *writer) arg(a FunctionArg) {
	w.str(a.Name)
	w.itype(a.Type)
}
