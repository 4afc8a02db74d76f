package mem

import (
	"encoding/binary"
	"fmt"
)

// A Storage keeps the bytes of the simulated physical memory.
//
// The storage manages memory in page-sized units and only materializes
// a unit once it is written, so untouched frames cost nothing. A unit
// that is zeroed is dropped again, which keeps a long-running
// simulation from accumulating dead pages.
type Storage struct {
	capacity uint64
	units    map[uint64][]byte
}

// NewStorage creates a Storage holding capacity bytes of physical
// memory.
func NewStorage(capacity uint64) *Storage {
	return &Storage{
		capacity: capacity,
		units:    make(map[uint64][]byte),
	}
}

// Capacity returns the size of the physical memory in bytes.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

func (s *Storage) unit(addr uint64) ([]byte, error) {
	if addr >= s.capacity {
		return nil, fmt.Errorf(
			"physical address %#x beyond storage capacity %#x",
			addr, s.capacity)
	}

	base := PageFloor(addr)
	u, ok := s.units[base]
	if !ok {
		u = make([]byte, PageSize)
		s.units[base] = u
	}

	return u, nil
}

// Read copies n bytes starting at addr out of the storage.
func (s *Storage) Read(addr, n uint64) ([]byte, error) {
	res := make([]byte, n)
	offset := uint64(0)

	for offset < n {
		u, err := s.unit(addr + offset)
		if err != nil {
			return nil, err
		}

		inUnit := (addr + offset) % PageSize
		c := copy(res[offset:], u[inUnit:])
		offset += uint64(c)
	}

	return res, nil
}

// Write copies data into the storage starting at addr.
func (s *Storage) Write(addr uint64, data []byte) error {
	offset := uint64(0)

	for offset < uint64(len(data)) {
		u, err := s.unit(addr + offset)
		if err != nil {
			return err
		}

		inUnit := (addr + offset) % PageSize
		c := copy(u[inUnit:], data[offset:])
		offset += uint64(c)
	}

	return nil
}

// ReadWord reads one 64-bit little-endian word at addr. Page-table
// entries are stored this way inside table frames.
func (s *Storage) ReadWord(addr uint64) (uint64, error) {
	b, err := s.Read(addr, 8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// WriteWord writes one 64-bit little-endian word at addr.
func (s *Storage) WriteWord(addr, v uint64) error {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)

	return s.Write(addr, b)
}

// FrameBytes returns a copy of the frame's 4096 bytes.
func (s *Storage) FrameBytes(f Frame) ([]byte, error) {
	return s.Read(f.Addr(), PageSize)
}

// ZeroFrame resets the frame to all-zero bytes.
func (s *Storage) ZeroFrame(f Frame) {
	if f.Addr() >= s.capacity {
		panicf("zeroing frame %d beyond storage capacity", f)
	}

	delete(s.units, f.Addr())
}

// CopyFrame copies the full content of frame src into frame dst.
func (s *Storage) CopyFrame(dst, src Frame) error {
	b, err := s.Read(src.Addr(), PageSize)
	if err != nil {
		return err
	}

	return s.Write(dst.Addr(), b)
}

func panicf(format string, args ...any) {
	panic(fmt.Sprintf(format, args...))
}
