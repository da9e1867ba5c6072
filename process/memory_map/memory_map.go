package memory_map

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// MemoryMapItem represents a memory region in a process's address space
type MemoryMapItem struct {
	Address  uint64 // The starting address of the memory region
	Size     uint   // The size of the memory region in bytes
	Perms    string // Permissions (e.g., "r-xp" for read, execute, private)
	Offset   uint64 // Offset of the mapping inside the backing file
	Pathname string // Backing file or pseudo name ("[heap]"), empty for anonymous mappings
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Path: %s", mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Pathname)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

// Contains reports whether [addr, addr+size) lies inside the region
func (mmItem MemoryMapItem) Contains(addr uint64, size uint64) bool {
	end := mmItem.Address + uint64(mmItem.Size)
	return addr >= mmItem.Address && addr+size <= end && addr+size >= addr
}

// sortByAddress orders memoryMap for FindRegion
func sortByAddress(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// FindRegion returns the region containing addr. memoryMap must be sorted by address.
func FindRegion(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].Address+uint64(memoryMap[i].Size) > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// Module is a file-backed image assembled from its mappings
type Module struct {
	Name string // Base name of the backing file
	Path string // Full path of the backing file
	Base uint64 // Lowest mapped address of the file
}

// Modules groups file-backed mappings by pathname. The base of each module is the
// lowest address at which its file is mapped. Pseudo mappings such as "[heap]" and
// anonymous mappings are ignored. The result is ordered by base address.
func Modules(memoryMap []MemoryMapItem) []Module {
	byPath := make(map[string]*Module)
	var order []*Module

	for _, item := range memoryMap {
		path := strings.TrimSuffix(item.Pathname, " (deleted)")
		if path == "" || strings.HasPrefix(path, "[") {
			continue
		}

		if m, ok := byPath[path]; ok {
			if item.Address < m.Base {
				m.Base = item.Address
			}
			continue
		}

		m := &Module{Name: filepath.Base(path), Path: path, Base: item.Address}
		byPath[path] = m
		order = append(order, m)
	}

	result := make([]Module, 0, len(order))
	for _, m := range order {
		result = append(result, *m)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Base < result[j].Base
	})
	return result
}
