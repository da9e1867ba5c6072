// Package pointer_chain resolves the live address of a heap structure from a
// module base by following a fixed sequence of 32-bit pointers.
package pointer_chain

import (
	"fmt"

	"ausettings/process"
)

// Reader is the part of process.Accessor the chain needs
type Reader interface {
	ReadUINT32(addr process.ProcessMemoryAddress) (uint32, error)
}

// Chain holds the relative offsets dereferenced after the root pointer
type Chain struct {
	Relative []uint32
}

// Default is the chain from the GameOptions static field to the options object
var Default = Chain{Relative: []uint32{0x5C, 0x04}}

// Hop records one dereference: Value was read from Address
type Hop struct {
	Address process.ProcessMemoryAddress
	Value   uint32
}

func (h Hop) String() string {
	return fmt.Sprintf("[%s] -> 0x%08x", h.Address.ToString(), h.Value)
}

// Resolve walks the chain and returns the structure address
func (c Chain) Resolve(r Reader, moduleBase process.ProcessMemoryAddress, baseOffset uint32) (process.ProcessMemoryAddress, error) {
	hops, err := c.Walk(r, moduleBase, baseOffset)
	if err != nil {
		return 0, err
	}
	return process.ProcessMemoryAddress(hops[len(hops)-1].Value), nil
}

// Walk reads the root pointer at moduleBase+baseOffset, then for every relative
// offset reads the next pointer at the previous value plus that offset. A null
// pointer stops the walk since the object has not been allocated yet.
func (c Chain) Walk(r Reader, moduleBase process.ProcessMemoryAddress, baseOffset uint32) ([]Hop, error) {
	hops := make([]Hop, 0, len(c.Relative)+1)

	addr := moduleBase.Add(baseOffset)
	for i := 0; ; i++ {
		v, err := r.ReadUINT32(addr)
		if err != nil {
			return hops, fmt.Errorf("pointer chain hop %d: %w", i, err)
		}
		hops = append(hops, Hop{Address: addr, Value: v})

		if v == 0 {
			return hops, fmt.Errorf("%w: null pointer at hop %d (%s)", process.ErrMemoryAccessFailed, i, addr.ToString())
		}
		if i == len(c.Relative) {
			return hops, nil
		}
		addr = process.ProcessMemoryAddress(v).Add(c.Relative[i])
	}
}
