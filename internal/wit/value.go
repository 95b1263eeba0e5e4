package wit

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/isgasho/fce/internal/werrors"
)

// InterfaceValue is a tagged value matching an InterfaceType. Record carries
// an ordered tuple of field values; Array carries a homogeneously-typed
// sequence; String is UTF-8.
type InterfaceValue struct {
	Type   InterfaceType
	S64    int64   // backs S8/S16/S32/S64/U8/U16/U32/U64/I32/I64
	F32    float32 // backs F32
	F64    float64 // backs F64
	Str    string  // backs String
	Items  []InterfaceValue // backs Array
	Fields []InterfaceValue // backs Record, ordered per the RecordType
}

func ValS32(v int32) InterfaceValue  { return InterfaceValue{Type: S32(), S64: int64(v)} }
func ValS64(v int64) InterfaceValue  { return InterfaceValue{Type: S64(), S64: v} }
func ValU32(v uint32) InterfaceValue { return InterfaceValue{Type: U32(), S64: int64(v)} }
func ValU64(v uint64) InterfaceValue { return InterfaceValue{Type: U64(), S64: int64(v)} }
func ValF32(v float32) InterfaceValue { return InterfaceValue{Type: F32(), F32: v} }
func ValF64(v float64) InterfaceValue { return InterfaceValue{Type: F64(), F64: v} }
func ValString(v string) InterfaceValue { return InterfaceValue{Type: StringT(), Str: v} }
func ValArray(elem InterfaceType, items []InterfaceValue) InterfaceValue {
	return InterfaceValue{Type: ArrayOf(elem), Items: items}
}
func ValRecord(id RecordTypeID, fields []InterfaceValue) InterfaceValue {
	return InterfaceValue{Type: RecordOf(id), Fields: fields}
}

// RawValue is a single Wasm scalar, as the underlying runtime exchanges it.
type RawValue struct {
	Type RawType
	I32  int32
	I64  int64
	F32  float32
	F64  float64
}

func (r RawValue) Uint64() uint64 {
	switch r.Type {
	case RawI32:
		return uint64(uint32(r.I32))
	case RawI64:
		return uint64(r.I64)
	case RawF32:
		return uint64(math.Float32bits(r.F32))
	case RawF64:
		return math.Float64bits(r.F64)
	default:
		return 0
	}
}

func RawFromUint64(t RawType, v uint64) RawValue {
	switch t {
	case RawI32:
		return RawValue{Type: RawI32, I32: int32(uint32(v))}
	case RawI64:
		return RawValue{Type: RawI64, I64: int64(v)}
	case RawF32:
		return RawValue{Type: RawF32, F32: math.Float32frombits(uint32(v))}
	case RawF64:
		return RawValue{Type: RawF64, F64: math.Float64frombits(v)}
	default:
		return RawValue{}
	}
}

// InterfaceValueToRaw converts a plain-export argument to its raw Wasm
// scalar form. Only scalar (non-string/array/record) interface values are
// valid here: interface-typed calls are marshaled by the interpreter and
// never pass through this conversion.
func InterfaceValueToRaw(v InterfaceValue) (RawValue, error) {
	switch v.Type.Tag {
	case TagS8, TagS16, TagS32, TagU8, TagU16, TagU32, TagI32:
		return RawValue{Type: RawI32, I32: int32(v.S64)}, nil
	case TagS64, TagU64, TagI64:
		return RawValue{Type: RawI64, I64: v.S64}, nil
	case TagF32:
		return RawValue{Type: RawF32, F32: v.F32}, nil
	case TagF64:
		return RawValue{Type: RawF64, F64: v.F64}, nil
	default:
		return RawValue{}, werrors.IncorrectInterface(
			fmt.Sprintf("cannot lower %s to a single raw value outside the interpreter", v.Type))
	}
}

// RawToInterfaceValue converts a raw Wasm scalar, returned by a plain
// export, back into an interface value using the synthesized type.
func RawToInterfaceValue(r RawValue) InterfaceValue {
	t := InterfaceTypeOfRaw(r.Type)
	switch r.Type {
	case RawI32:
		return InterfaceValue{Type: t, S64: int64(r.I32)}
	case RawI64:
		return InterfaceValue{Type: t, S64: r.I64}
	case RawF32:
		return InterfaceValue{Type: t, F32: r.F32}
	case RawF64:
		return InterfaceValue{Type: t, F64: r.F64}
	default:
		return InterfaceValue{}
	}
}

// wireValue is the ecosystem-neutral (JSON) on-the-wire shape for an
// InterfaceValue, used by FromInterfaceValues/ToInterfaceValue at the
// system boundary (consumers outside this core, e.g. the outer FaaS
// service's argument codec).
type wireValue struct {
	Type   string        `json:"type"`
	Int    *int64        `json:"int,omitempty"`
	Float  *float64      `json:"float,omitempty"`
	String *string       `json:"string,omitempty"`
	Items  []wireValue   `json:"items,omitempty"`
	Fields []wireValue   `json:"fields,omitempty"`
	Record *uint64       `json:"record,omitempty"`
	Elem   *string       `json:"elem,omitempty"`
}

func toWire(v InterfaceValue) wireValue {
	w := wireValue{Type: v.Type.Tag.String()}
	switch v.Type.Tag {
	case TagS8, TagS16, TagS32, TagS64, TagU8, TagU16, TagU32, TagU64, TagI32, TagI64:
		i := v.S64
		w.Int = &i
	case TagF32:
		f := float64(v.F32)
		w.Float = &f
	case TagF64:
		f := v.F64
		w.Float = &f
	case TagString:
		s := v.Str
		w.String = &s
	case TagArray:
		items := make([]wireValue, len(v.Items))
		for i, it := range v.Items {
			items[i] = toWire(it)
		}
		w.Items = items
		if v.Type.Elem != nil {
			e := v.Type.Elem.Tag.String()
			w.Elem = &e
		}
	case TagRecord:
		fields := make([]wireValue, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = toWire(f)
		}
		w.Fields = fields
		r := uint64(v.Type.Record)
		w.Record = &r
	}
	return w
}

// FromInterfaceValues serializes interface values into an ecosystem-neutral
// (JSON) byte form for consumers at the system boundary.
func FromInterfaceValues(values []InterfaceValue) ([]byte, error) {
	wire := make([]wireValue, len(values))
	for i, v := range values {
		wire[i] = toWire(v)
	}
	return json.Marshal(wire)
}

var tagByName = func() map[string]TypeTag {
	m := make(map[string]TypeTag, 16)
	for _, t := range []TypeTag{
		TagS8, TagS16, TagS32, TagS64, TagU8, TagU16, TagU32, TagU64,
		TagF32, TagF64, TagString, TagArray, TagRecord, TagI32, TagI64, TagAnyref,
	} {
		m[t.String()] = t
	}
	return m
}()

// ToInterfaceValue deserializes a single JSON-encoded value, failing with
// werrors.IncorrectInterface on a shape mismatch against expected.
func ToInterfaceValue(raw []byte, expected InterfaceType) (InterfaceValue, error) {
	var w wireValue
	if err := json.Unmarshal(raw, &w); err != nil {
		return InterfaceValue{}, werrors.IncorrectInterface("malformed value: " + err.Error())
	}

	tag, ok := tagByName[w.Type]
	if !ok || tag != expected.Tag {
		return InterfaceValue{}, werrors.IncorrectInterface(
			fmt.Sprintf("expected %s, got %q", expected, w.Type))
	}

	switch expected.Tag {
	case TagS8, TagS16, TagS32, TagS64, TagU8, TagU16, TagU32, TagU64, TagI32, TagI64:
		if w.Int == nil {
			return InterfaceValue{}, werrors.IncorrectInterface("missing int payload")
		}
		return InterfaceValue{Type: expected, S64: *w.Int}, nil
	case TagF32:
		if w.Float == nil {
			return InterfaceValue{}, werrors.IncorrectInterface("missing float payload")
		}
		return InterfaceValue{Type: expected, F32: float32(*w.Float)}, nil
	case TagF64:
		if w.Float == nil {
			return InterfaceValue{}, werrors.IncorrectInterface("missing float payload")
		}
		return InterfaceValue{Type: expected, F64: *w.Float}, nil
	case TagString:
		if w.String == nil {
			return InterfaceValue{}, werrors.IncorrectInterface("missing string payload")
		}
		return InterfaceValue{Type: expected, Str: *w.String}, nil
	case TagArray:
		if expected.Elem == nil {
			return InterfaceValue{}, werrors.IncorrectInterface("array type missing element type")
		}
		items := make([]InterfaceValue, len(w.Items))
		for i, it := range w.Items {
			raw, err := json.Marshal(it)
			if err != nil {
				return InterfaceValue{}, werrors.IncorrectInterface(err.Error())
			}
			v, err := ToInterfaceValue(raw, *expected.Elem)
			if err != nil {
				return InterfaceValue{}, err
			}
			items[i] = v
		}
		return InterfaceValue{Type: expected, Items: items}, nil
	case TagRecord:
		return InterfaceValue{}, werrors.IncorrectInterface(
			"record decoding requires the owning module's record-type table")
	default:
		return InterfaceValue{}, werrors.IncorrectInterface("unsupported type " + expected.String())
	}
}
