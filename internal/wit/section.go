package wit

import (
	"encoding/binary"
	"fmt"

	"github.com/isgasho/fce/internal/werrors"
)

// SectionName is the custom Wasm section name the engine looks for when
// locating a module's embedded interface description.
const SectionName = "interface-types"

// TypeEntryKind distinguishes the two kinds of entry in a Section's type
// table: a function signature or a record layout.
type TypeEntryKind int

const (
	TypeEntryFunction TypeEntryKind = iota
	TypeEntryRecord
)

// TypeEntry is one slot of the parsed section's type table. Record-type
// identifiers are assigned by POSITION among all entries: Function entries
// advance the counter too, without being inserted into the record table.
type TypeEntry struct {
	Kind TypeEntryKind

	// set iff Kind == TypeEntryFunction
	FuncArguments []FunctionArg
	FuncOutputs   []InterfaceType

	// set iff Kind == TypeEntryRecord
	Record RecordType
}

// Export is one interface export declared by the section: a name and the
// raw Wasm export backing it. These become the exports half of an
// Instance's index space.
type Export struct {
	Name string
}

// Import is one import declared by the section. AdapterTypeIdx is non-nil
// only when the section links the import's function-type index to an
// adapter type — i.e. when another module is expected to provide it; a nil
// AdapterTypeIdx means the import is host-provided and is silently skipped
// during instance construction.
type Import struct {
	Namespace       string
	Name            string
	FunctionTypeIdx int
	AdapterTypeIdx  *int
}

// AdapterExport is one public interface-typed function the module exposes:
// a name, the lift/lower bytecode, and the index of its Function type
// entry (used to derive its FunctionSignature). These become the Module's
// exports map that GetInterface enumerates.
type AdapterExport struct {
	Name            string
	Program         Program
	FunctionTypeIdx int
}

// Section is the typed AST the interface-section parser yields: types,
// imports, exports, and the module's public adapter functions. Parsing the
// raw section bytes into this AST is an external collaborator's job; this
// core only consumes the result.
type Section struct {
	Types          []TypeEntry
	Exports        []Export
	Imports        []Import
	AdapterExports []AdapterExport
}

// FunctionTypeAt returns the Function-kind type entry at idx, failing with
// IncorrectInterface if idx is out of range or the slot is not a Function.
func (s *Section) FunctionTypeAt(idx int) ([]FunctionArg, []InterfaceType, error) {
	if idx < 0 || idx >= len(s.Types) {
		return nil, nil, werrors.IncorrectInterface(fmt.Sprintf("type index %d out of range", idx))
	}
	t := s.Types[idx]
	if t.Kind != TypeEntryFunction {
		return nil, nil, werrors.IncorrectInterface(
			fmt.Sprintf("type index %d: expected Function, got Record", idx))
	}
	return t.FuncArguments, t.FuncOutputs, nil
}

// RecordTypesByID builds the record-type table by iterating the section's
// types in declaration order and assigning successive ids 0,1,2,…,
// inserting only Record entries but advancing the id on every entry.
func (s *Section) RecordTypesByID() map[RecordTypeID]*RecordType {
	out := make(map[RecordTypeID]*RecordType)
	for id, t := range s.Types {
		if t.Kind == TypeEntryRecord {
			rt := t.Record
			out[RecordTypeID(id)] = &rt
		}
	}
	return out
}

// SectionParser turns the raw bytes of an embedded interface-types custom
// section into the typed AST. Real WIT-section grammars are out of this
// core's scope; embedders supply their own parser matching whatever
// grammar their module producer emits. DefaultSectionParser below
// is a reference implementation for this repository's own compact,
// self-describing encoding, exercised by SectionBuilder in tests.
type SectionParser interface {
	Parse(raw []byte) (*Section, error)
}

// DefaultSectionParser decodes the encoding written by SectionBuilder.
type DefaultSectionParser struct{}

// reader is a tiny cursor over the section payload, used only by this
// package's own reference codec.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) u8() (byte, bool) {
	if r.pos >= len(r.buf) {
		return 0, false
	}
	b := r.buf[r.pos]
	r.pos++
	return b, true
}

func (r *reader) u32() (uint32, bool) {
	if r.pos+4 > len(r.buf) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, true
}

func (r *reader) bytes(n uint32) ([]byte, bool) {
	if r.pos+int(n) > len(r.buf) {
		return nil, false
	}
	b := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return b, true
}

func (r *reader) str() (string, bool) {
	n, ok := r.u32()
	if !ok {
		return "", false
	}
	b, ok := r.bytes(n)
	if !ok {
		return "", false
	}
	return string(b), true
}

func (r *reader) itype() (InterfaceType, bool) {
	tag, ok := r.u8()
	if !ok {
		return InterfaceType{}, false
	}
	switch TypeTag(tag) {
	case TagArray:
		elem, ok := r.itype()
		if !ok {
			return InterfaceType{}, false
		}
		return ArrayOf(elem), true
	case TagRecord:
		id, ok := r.u32()
		if !ok {
			return InterfaceType{}, false
		}
		return RecordOf(RecordTypeID(id)), true
	default:
		return InterfaceType{Tag: TypeTag(tag)}, true
	}
}

func (r *reader) arg() (FunctionArg, bool) {
	name, ok := r.str()
	if !ok {
		return FunctionArg{}, false
	}
	ty, ok := r.itype()
	if !ok {
		return FunctionArg{}, false
	}
	return FunctionArg{Name: name, Type: ty}, true
}

// Parse implements SectionParser for this repository's reference encoding.
// See SectionBuilder for the writer side and the exact layout.
func (DefaultSectionParser) Parse(raw []byte) (*Section, error) {
	r := &reader{buf: raw}
	fail := func(what string) (*Section, error) {
		return nil, werrors.InterfaceParseFailed(what)
	}

	typeCount, ok := r.u32()
	if !ok {
		return fail("truncated type count")
	}
	types := make([]TypeEntry, 0, typeCount)
	for i := uint32(0); i < typeCount; i++ {
		kind, ok := r.u8()
		if !ok {
			return fail("truncated type entry")
		}
		switch kind {
		case 0: // Function
			nArgs, ok := r.u32()
			if !ok {
				return fail("truncated function arg count")
			}
			args := make([]FunctionArg, 0, nArgs)
			for j := uint32(0); j < nArgs; j++ {
				a, ok := r.arg()
				if !ok {
					return fail("truncated function argument")
				}
				args = append(args, a)
			}
			nOut, ok := r.u32()
			if !ok {
				return fail("truncated function output count")
			}
			outs := make([]InterfaceType, 0, nOut)
			for j := uint32(0); j < nOut; j++ {
				t, ok := r.itype()
				if !ok {
					return fail("truncated function output")
				}
				outs = append(outs, t)
			}
			types = append(types, TypeEntry{Kind: TypeEntryFunction, FuncArguments: args, FuncOutputs: outs})
		case 1: // Record
			name, ok := r.str()
			if !ok {
				return fail("truncated record name")
			}
			nFields, ok := r.u32()
			if !ok {
				return fail("truncated record field count")
			}
			fields := make([]FunctionArg, 0, nFields)
			for j := uint32(0); j < nFields; j++ {
				f, ok := r.arg()
				if !ok {
					return fail("truncated record field")
				}
				fields = append(fields, f)
			}
			types = append(types, TypeEntry{Kind: TypeEntryRecord, Record: RecordType{Name: name, Fields: fields}})
		default:
			return fail("unknown type entry kind")
		}
	}

	exportCount, ok := r.u32()
	if !ok {
		return fail("truncated export count")
	}
	exports := make([]Export, 0, exportCount)
	for i := uint32(0); i < exportCount; i++ {
		name, ok := r.str()
		if !ok {
			return fail("truncated export name")
		}
		exports = append(exports, Export{Name: name})
	}

	importCount, ok := r.u32()
	if !ok {
		return fail("truncated import count")
	}
	imports := make([]Import, 0, importCount)
	for i := uint32(0); i < importCount; i++ {
		namespace, ok := r.str()
		if !ok {
			return fail("truncated import namespace")
		}
		name, ok := r.str()
		if !ok {
			return fail("truncated import name")
		}
		ftIdx, ok := r.u32()
		if !ok {
			return fail("truncated import function type index")
		}
		hasAdapter, ok := r.u8()
		if !ok {
			return fail("truncated import adapter flag")
		}
		imp := Import{Namespace: namespace, Name: name, FunctionTypeIdx: int(ftIdx)}
		if hasAdapter != 0 {
			atIdx, ok := r.u32()
			if !ok {
				return fail("truncated import adapter type index")
			}
			v := int(atIdx)
			imp.AdapterTypeIdx = &v
		}
		imports = append(imports, imp)
	}

	adapterCount, ok := r.u32()
	if !ok {
		return fail("truncated adapter export count")
	}
	adapters := make([]AdapterExport, 0, adapterCount)
	for i := uint32(0); i < adapterCount; i++ {
		name, ok := r.str()
		if !ok {
			return fail("truncated adapter export name")
		}
		ftIdx, ok := r.u32()
		if !ok {
			return fail("truncated adapter export type index")
		}
		progLen, ok := r.u32()
		if !ok {
			return fail("truncated adapter program length")
		}
		prog, ok := r.bytes(progLen)
		if !ok {
			return fail("truncated adapter program")
		}
		adapters = append(adapters, AdapterExport{Name: name, FunctionTypeIdx: int(ftIdx), Program: append(Program(nil), prog...)})
	}

	if r.pos != len(r.buf) {
		return nil, werrors.InterfaceSectionTrailingBytes("")
	}

	return &Section{Types: types, Exports: exports, Imports: imports, AdapterExports: adapters}, nil
}
