//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ausettings/process"

	"github.com/prometheus/procfs"
)

// LinuxProcessFinder implements the process.Finder interface by scanning /proc
type LinuxProcessFinder struct {
	procRoot string
}

var _ process.Finder = (*LinuxProcessFinder)(nil)

// NewProcessFinder creates a new LinuxProcessFinder
func NewProcessFinder() *LinuxProcessFinder {
	return &LinuxProcessFinder{procRoot: "/proc"}
}

// FindProcess opens the lowest-PID process whose executable name contains name.
func (f *LinuxProcessFinder) FindProcess(name string) (process.Process, error) {
	candidates, err := f.FindProcessesByName(name)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no process name contains %q", process.ErrProcessNotFound, name)
	}

	var lastErr error
	for _, info := range candidates {
		p, err := NewWithPID(info.PID)
		if err != nil {
			// Process may have terminated while we were scanning
			lastErr = err
			continue
		}
		return p, nil
	}

	return nil, fmt.Errorf("%w: %d candidate(s) for %q could not be opened: %w", process.ErrProcessNotFound, len(candidates), name, lastErr)
}

// FindProcessesByName lists processes whose comm, exe basename or argv[0] basename
// contains name, ordered by PID.
func (f *LinuxProcessFinder) FindProcessesByName(name string) ([]process.ProcessInfo, error) {
	fs, err := procfs.NewFS(f.procRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.procRoot, err)
	}

	procs, err := fs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", f.procRoot, err)
	}

	selfPID := os.Getpid()
	var results []process.ProcessInfo

	for _, p := range procs {
		if p.PID <= 0 || p.PID == selfPID {
			continue
		}

		if info, ok := matchProcess(p, name); ok {
			results = append(results, info)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].PID < results[j].PID
	})

	return results, nil
}

// matchProcess tolerates unreadable entries; kernel threads have no exe and the
// process may exit mid-scan
func matchProcess(p procfs.Proc, name string) (process.ProcessInfo, bool) {
	exe, _ := p.Executable()

	comm, _ := p.Comm()
	names := []string{comm}
	if exe != "" {
		names = append(names, filepath.Base(exe))
	}

	// Wine and Proton keep the Windows image path in argv[0]
	if cmdline, err := p.CmdLine(); err == nil && len(cmdline) > 0 {
		names = append(names, windowsBase(cmdline[0]))
	}

	for _, n := range names {
		if n != "" && strings.Contains(n, name) {
			return process.ProcessInfo{PID: process.ProcessID(p.PID), Name: n}, true
		}
	}

	return process.ProcessInfo{}, false
}

// windowsBase returns the last element of a path using either separator
func windowsBase(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
