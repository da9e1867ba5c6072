//go:build linux

package memory_map

import (
	"github.com/prometheus/procfs"
)

// ReadMemoryMap reads the memory map for a process from /proc/[pid]/maps,
// sorted by address
func ReadMemoryMap(pid int) ([]MemoryMapItem, error) {
	return readMemoryMap(procfs.DefaultMountPoint, pid)
}

func readMemoryMap(procRoot string, pid int) ([]MemoryMapItem, error) {
	fs, err := procfs.NewFS(procRoot)
	if err != nil {
		return nil, err
	}

	proc, err := fs.Proc(pid)
	if err != nil {
		return nil, err
	}

	maps, err := proc.ProcMaps()
	if err != nil {
		return nil, err
	}

	memoryMap := make([]MemoryMapItem, 0, len(maps))
	for _, m := range maps {
		if m.EndAddr < m.StartAddr {
			continue
		}
		memoryMap = append(memoryMap, MemoryMapItem{
			Address:  uint64(m.StartAddr),
			Size:     uint(m.EndAddr - m.StartAddr),
			Perms:    perms(m.Perms),
			Offset:   uint64(m.Offset),
			Pathname: m.Pathname,
		})
	}

	sortByAddress(memoryMap)
	return memoryMap, nil
}

// perms renders permissions in the maps file notation, e.g. "r-xp"
func perms(p *procfs.ProcMapPermissions) string {
	if p == nil {
		return "----"
	}

	b := []byte("---p")
	if p.Read {
		b[0] = 'r'
	}
	if p.Write {
		b[1] = 'w'
	}
	if p.Execute {
		b[2] = 'x'
	}
	if p.Shared {
		b[3] = 's'
	}
	return string(b)
}
