//go:build linux

package process_linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ausettings/process"
	"ausettings/process/memory_map"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

// LinuxProcess implements the process.Process interface for Linux systems.
// The handle is a pidfd when the kernel supports it, so liveness probes cannot be
// fooled by PID reuse. Without pidfd the process start time is compared instead.
type LinuxProcess struct {
	pid       process.ProcessID
	pidfd     int
	startTime uint64
	exe       string
	log       *logger.Logger
	mm        []memory_map.MemoryMapItem
	mu        sync.Mutex
}

var _ process.Process = (*LinuxProcess)(nil)

// NewWithPID opens the process with the given PID
func NewWithPID(pid process.ProcessID) (*LinuxProcess, error) {
	// Check if process exists
	procPath := fmt.Sprintf("/proc/%d", pid)
	if _, err := os.Stat(procPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("process with PID %d does not exist", pid)
	}

	state, startTime, err := readStat(pid)
	if err != nil {
		return nil, err
	}
	if state.IsTerminated() {
		return nil, fmt.Errorf("process with PID %d has exited (state %s)", pid, state)
	}

	p := &LinuxProcess{
		pid:       pid,
		pidfd:     -1,
		startTime: startTime,
		log:       logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	if fd, err := unix.PidfdOpen(int(pid), 0); err == nil {
		p.pidfd = fd
	} else {
		p.log.Debugln("pidfd_open unavailable, falling back to start time checks:", err)
	}

	// Some processes deny access to exe; Path reports that later
	p.exe, _ = os.Readlink(filepath.Join(procPath, "exe"))

	// Initialize memory map
	if err := p.updateMemoryMap(); err != nil {
		p.closeLocked()
		return nil, fmt.Errorf("failed to initialize memory map: %w", err)
	}

	// Under Wine exe is the loader; the mapped PE image carries the real path
	if cmdline, err := os.ReadFile(filepath.Join(procPath, "cmdline")); err == nil {
		argv0, _, _ := strings.Cut(string(cmdline), "\x00")
		if mapped := mappedImage(p.mm, windowsBase(argv0)); mapped != "" {
			p.exe = mapped
		}
	}

	p.log.Infoln("Process opened", p.exe)
	return p, nil
}

func (p *LinuxProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return nil
	}

	p.log.Infoln("Closing process")
	return p.closeLocked()
}

func (p *LinuxProcess) closeLocked() error {
	var err error
	if p.pidfd >= 0 {
		err = unix.Close(p.pidfd)
		p.pidfd = -1
	}

	// Reset process state
	p.pid = 0
	p.mm = nil
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	return err
}

// GetPID returns the process ID
func (p *LinuxProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// Path returns the executable path recorded when the process was opened
func (p *LinuxProcess) Path() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return "", process.ErrProcessNotOpen
	}
	if p.exe == "" {
		return "", fmt.Errorf("executable path of pid %d is not readable", p.pid)
	}
	return p.exe, nil
}

// IsAlive probes the process through its pidfd, then through /proc/[pid]/stat
func (p *LinuxProcess) IsAlive() bool {
	p.mu.Lock()
	pid, pidfd, startTime := p.pid, p.pidfd, p.startTime
	p.mu.Unlock()

	if pid == 0 {
		return false
	}

	if pidfd >= 0 {
		if err := unix.PidfdSendSignal(pidfd, 0, nil, 0); err != nil {
			return false
		}
	}

	state, st, err := readStat(pid)
	if err != nil {
		return false
	}

	return !state.IsTerminated() && st == startTime
}

// Modules re-reads /proc/[pid]/maps and groups file-backed mappings into modules
func (p *LinuxProcess) Modules() ([]process.ModuleInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.updateMemoryMap(); err != nil {
		return nil, err
	}

	var result []process.ModuleInfo
	for _, m := range memory_map.Modules(p.mm) {
		result = append(result, process.ModuleInfo{
			Name: m.Name,
			Base: process.ProcessMemoryAddress(m.Base),
			Path: m.Path,
		})
	}
	return result, nil
}

// updateMemoryMap assumes the mutex is held
func (p *LinuxProcess) updateMemoryMap() error {
	if p.pid == 0 {
		return process.ErrProcessNotOpen
	}

	mm, err := memory_map.ReadMemoryMap(int(p.pid))
	if err != nil {
		return fmt.Errorf("failed to read memory map: %w", err)
	}

	p.mm = mm
	return nil
}

// region returns the mapping covering [addr, addr+size). The map is refreshed once
// on a miss since the target allocates new heap regions over its lifetime.
func (p *LinuxProcess) region(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) (process.ProcessID, memory_map.MemoryMapItem, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pid == 0 {
		return 0, memory_map.MemoryMapItem{}, process.ErrProcessNotOpen
	}

	for attempt := 0; attempt < 2; attempt++ {
		if item := memory_map.FindRegion(uint64(addr), p.mm); item != nil && item.Contains(uint64(addr), uint64(size)) {
			return p.pid, *item, nil
		}
		if attempt == 0 {
			if err := p.updateMemoryMap(); err != nil {
				return 0, memory_map.MemoryMapItem{}, err
			}
		}
	}

	return 0, memory_map.MemoryMapItem{}, fmt.Errorf("%w: %s (%s)", process.ErrAddressNotMapped, addr.ToString(), size.ToString())
}

// mappedImage returns the path of the file-backed mapping named base, if any
func mappedImage(mm []memory_map.MemoryMapItem, base string) string {
	if base == "" {
		return ""
	}
	for _, m := range memory_map.Modules(mm) {
		if strings.EqualFold(m.Name, base) {
			return m.Path
		}
	}
	return ""
}

// readStat returns the state and start time (in clock ticks) from /proc/[pid]/stat
func readStat(pid process.ProcessID) (process.ProcessState, uint64, error) {
	proc, err := procfs.NewProc(int(pid))
	if err != nil {
		return "", 0, err
	}

	stat, err := proc.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("read stat of pid %d: %w", pid, err)
	}

	return process.ProcessState(stat.State), stat.Starttime, nil
}
