package wit

import "fmt"

// RawMemory is the minimal surface WITMemory needs from the underlying
// linear-memory runtime: bounds-checked byte access into one live memory
// region of a loaded module's compiled instance. internal/wasmrt implements
// this over a *wazero* api.Memory.
type RawMemory interface {
	// Len returns the current size of the region in bytes.
	Len() uint32
	// ReadByte reads a single byte at the given offset.
	ReadByte(offset uint32) (byte, bool)
	// WriteByte writes a single byte at the given offset.
	WriteByte(offset uint32, v byte) bool
	// Read copies n bytes starting at offset into a fresh slice.
	Read(offset, n uint32) ([]byte, bool)
	// Write copies data into the region starting at offset.
	Write(offset uint32, data []byte) bool
}

// Memory presents one linear memory region of a loaded module as a bounded,
// indexable view: the sole channel through which the interpreter reads and
// writes bytes during lift/lower. No caching — it reflects the current
// live memory of the owning compiled instance.
type Memory struct {
	raw RawMemory
}

// NewMemory wraps raw as a WIT memory view.
func NewMemory(raw RawMemory) *Memory { return &Memory{raw: raw} }

// Len reports the current size of the memory in bytes.
func (m *Memory) Len() uint32 { return m.raw.Len() }

// ReadByte reads a single byte. A read at index i with i>=Len() fails the
// current interpreter instruction.
func (m *Memory) ReadByte(offset uint32) (byte, error) {
	b, ok := m.raw.ReadByte(offset)
	if !ok {
		return 0, fmt.Errorf("memory read out of bounds at offset %d (len %d)", offset, m.raw.Len())
	}
	return b, nil
}

// WriteByte writes a single byte, following the same bounds rule as ReadByte.
func (m *Memory) WriteByte(offset uint32, v byte) error {
	if !m.raw.WriteByte(offset, v) {
		return fmt.Errorf("memory write out of bounds at offset %d (len %d)", offset, m.raw.Len())
	}
	return nil
}

// Read copies n bytes starting at offset.
func (m *Memory) Read(offset, n uint32) ([]byte, error) {
	data, ok := m.raw.Read(offset, n)
	if !ok {
		return nil, fmt.Errorf("memory read out of bounds at [%d:%d) (len %d)", offset, offset+n, m.raw.Len())
	}
	return data, nil
}

// Write copies data into the region starting at offset.
func (m *Memory) Write(offset uint32, data []byte) error {
	if !m.raw.Write(offset, data) {
		return fmt.Errorf("memory write out of bounds at [%d:%d) (len %d)", offset, offset+uint32(len(data)), m.raw.Len())
	}
	return nil
}
