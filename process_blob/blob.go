// Package process_blob is an in-memory stand-in for an OS process: a sparse set of
// byte regions plus a module table. It backs tests and platforms without the
// target OS.
package process_blob

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"

	"ausettings/process"

	"go.uber.org/atomic"
)

type region struct {
	address process.ProcessMemoryAddress
	data    []byte
}

func (r *region) contains(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) bool {
	end := uint64(r.address) + uint64(len(r.data))
	return addr >= r.address && uint64(addr)+uint64(size) <= end
}

// ProcessImage is the simulated target. Handles opened on it share its memory.
type ProcessImage struct {
	pid  process.ProcessID
	name string
	path string

	mu      sync.RWMutex
	modules []process.ModuleInfo
	regions []*region
	alive   bool

	accesses atomic.Int64
}

// NewProcessImage creates a live image with no memory mapped
func NewProcessImage(pid process.ProcessID, name, path string) *ProcessImage {
	return &ProcessImage{pid: pid, name: name, path: path, alive: true}
}

func (img *ProcessImage) PID() process.ProcessID { return img.pid }
func (img *ProcessImage) Name() string           { return img.name }

// AddModule registers a loaded module
func (img *ProcessImage) AddModule(name string, base process.ProcessMemoryAddress) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.modules = append(img.modules, process.ModuleInfo{Name: name, Base: base})
}

// MapRegion maps size zero bytes at addr
func (img *ProcessImage) MapRegion(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) {
	img.MapBytes(addr, make([]byte, size))
}

// MapBytes maps a copy of data at addr. Overlapping regions are not merged; the
// region with the lowest address wins on lookup.
func (img *ProcessImage) MapBytes(addr process.ProcessMemoryAddress, data []byte) {
	img.mu.Lock()
	defer img.mu.Unlock()

	img.regions = append(img.regions, &region{address: addr, data: append([]byte(nil), data...)})
	sort.Slice(img.regions, func(i, j int) bool {
		return img.regions[i].address < img.regions[j].address
	})
}

// Kill marks the image as exited; open handles report it as dead
func (img *ProcessImage) Kill() {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.alive = false
}

// Accesses returns the number of ReadMemory/WriteMemory calls made through handles
func (img *ProcessImage) Accesses() int64 {
	return img.accesses.Load()
}

// PutUINT32 stores v little-endian at addr without counting as an access
func (img *ProcessImage) PutUINT32(addr process.ProcessMemoryAddress, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return img.store(addr, buf[:])
}

// PutFLOAT32 stores the IEEE-754 bits of v at addr
func (img *ProcessImage) PutFLOAT32(addr process.ProcessMemoryAddress, v float32) error {
	return img.PutUINT32(addr, math.Float32bits(v))
}

// PutUINT8 stores v at addr
func (img *ProcessImage) PutUINT8(addr process.ProcessMemoryAddress, v uint8) error {
	return img.store(addr, []byte{v})
}

// Bytes returns a copy of size bytes at addr
func (img *ProcessImage) Bytes(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	img.mu.RLock()
	defer img.mu.RUnlock()

	r := img.find(addr, size)
	if r == nil {
		return nil, fmt.Errorf("%w: %s (%s)", process.ErrAddressNotMapped, addr.ToString(), size.ToString())
	}
	off := addr - r.address
	return append([]byte(nil), r.data[off:uint64(off)+uint64(size)]...), nil
}

func (img *ProcessImage) store(addr process.ProcessMemoryAddress, data []byte) error {
	img.mu.Lock()
	defer img.mu.Unlock()

	r := img.find(addr, process.ProcessMemorySize(len(data)))
	if r == nil {
		return fmt.Errorf("%w: %s (%d bytes)", process.ErrAddressNotMapped, addr.ToString(), len(data))
	}
	copy(r.data[addr-r.address:], data)
	return nil
}

// find assumes img.mu is held
func (img *ProcessImage) find(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) *region {
	for _, r := range img.regions {
		if r.contains(addr, size) {
			return r
		}
	}
	return nil
}

func (img *ProcessImage) isAlive() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.alive
}

// Open returns a new handle on the image
func (img *ProcessImage) Open() *ProcessBlob {
	return &ProcessBlob{image: img}
}

// ProcessBlob is a handle on a ProcessImage implementing process.Process
type ProcessBlob struct {
	image  *ProcessImage
	closed atomic.Bool
}

var _ process.Process = (*ProcessBlob)(nil)

func (p *ProcessBlob) checkOpen() error {
	if p.closed.Load() {
		return process.ErrProcessNotOpen
	}
	return nil
}

func (p *ProcessBlob) GetPID() process.ProcessID {
	if p.checkOpen() != nil {
		return 0
	}
	return p.image.pid
}

func (p *ProcessBlob) Path() (string, error) {
	if err := p.checkOpen(); err != nil {
		return "", err
	}
	return p.image.path, nil
}

func (p *ProcessBlob) Modules() ([]process.ModuleInfo, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}

	p.image.mu.RLock()
	defer p.image.mu.RUnlock()

	result := make([]process.ModuleInfo, len(p.image.modules))
	copy(result, p.image.modules)
	return result, nil
}

func (p *ProcessBlob) IsAlive() bool {
	return p.checkOpen() == nil && p.image.isAlive()
}

func (p *ProcessBlob) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if err := p.checkOpen(); err != nil {
		return nil, err
	}
	p.image.accesses.Inc()

	if !p.image.isAlive() {
		return nil, fmt.Errorf("pid %d has exited", p.image.pid)
	}
	return p.image.Bytes(addr, size)
}

func (p *ProcessBlob) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	p.image.accesses.Inc()

	if !p.image.isAlive() {
		return fmt.Errorf("pid %d has exited", p.image.pid)
	}
	return p.image.store(addr, data)
}

// Close marks the handle closed; the image itself is unaffected
func (p *ProcessBlob) Close() error {
	p.closed.Store(true)
	return nil
}
