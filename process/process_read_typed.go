package process

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Accessor performs fixed-width typed reads and writes through a MemoryReadWriter.
// Every call moves exactly the width of its value. A failed or short transfer is
// reported as ErrMemoryAccessFailed, never as a zero value.
type Accessor struct {
	rw MemoryReadWriter
}

// NewAccessor wraps rw.
func NewAccessor(rw MemoryReadWriter) *Accessor {
	return &Accessor{rw: rw}
}

func (a *Accessor) read(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error) {
	data, err := a.rw.ReadMemory(addr, size)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s at %s: %w", ErrMemoryAccessFailed, size.ToString(), addr.ToString(), err)
	}
	if len(data) != int(size) {
		return nil, fmt.Errorf("%w: short read at %s: got %d of %d bytes", ErrMemoryAccessFailed, addr.ToString(), len(data), size)
	}
	return data, nil
}

func (a *Accessor) write(addr ProcessMemoryAddress, data []byte) error {
	if err := a.rw.WriteMemory(addr, data); err != nil {
		return fmt.Errorf("%w: write %d bytes at %s: %w", ErrMemoryAccessFailed, len(data), addr.ToString(), err)
	}
	return nil
}

// ReadUINT8 reads an unsigned 8-bit integer from the specified address
func (a *Accessor) ReadUINT8(addr ProcessMemoryAddress) (uint8, error) {
	data, err := a.read(addr, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

// ReadUINT32 reads an unsigned 32-bit integer from the specified address
func (a *Accessor) ReadUINT32(addr ProcessMemoryAddress) (uint32, error) {
	data, err := a.read(addr, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ReadINT32 reads a signed 32-bit integer from the specified address
func (a *Accessor) ReadINT32(addr ProcessMemoryAddress) (int32, error) {
	v, err := a.ReadUINT32(addr)
	return int32(v), err
}

// ReadFLOAT32 reads a 32-bit floating point number from the specified address
func (a *Accessor) ReadFLOAT32(addr ProcessMemoryAddress) (float32, error) {
	v, err := a.ReadUINT32(addr)
	return math.Float32frombits(v), err
}

// WriteUINT8 writes an unsigned 8-bit integer to the specified address
func (a *Accessor) WriteUINT8(addr ProcessMemoryAddress, value uint8) error {
	return a.write(addr, []byte{value})
}

// WriteINT32 writes a signed 32-bit integer to the specified address
func (a *Accessor) WriteINT32(addr ProcessMemoryAddress, value int32) error {
	return a.writeUINT32(addr, uint32(value))
}

// WriteFLOAT32 writes a 32-bit floating point number to the specified address
func (a *Accessor) WriteFLOAT32(addr ProcessMemoryAddress, value float32) error {
	return a.writeUINT32(addr, math.Float32bits(value))
}

func (a *Accessor) writeUINT32(addr ProcessMemoryAddress, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return a.write(addr, buf[:])
}
