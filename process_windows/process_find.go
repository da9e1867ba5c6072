//go:build windows

package process_windows

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"ausettings/process"

	"golang.org/x/sys/windows"
)

// WindowsProcessFinder implements the process.Finder interface using a Toolhelp32 snapshot
type WindowsProcessFinder struct{}

var _ process.Finder = (*WindowsProcessFinder)(nil)

// NewProcessFinder creates a new WindowsProcessFinder
func NewProcessFinder() *WindowsProcessFinder {
	return &WindowsProcessFinder{}
}

// FindProcess opens the first process, in snapshot order, whose image name contains name
func (f *WindowsProcessFinder) FindProcess(name string) (process.Process, error) {
	candidates, err := f.FindProcessesByName(name)
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no process name contains %q", process.ErrProcessNotFound, name)
	}

	p, err := NewWithPID(candidates[0].PID)
	if err != nil {
		return nil, fmt.Errorf("%w: open pid %d: %w", process.ErrProcessNotFound, candidates[0].PID, err)
	}
	return p, nil
}

// FindProcessesByName lists processes whose image name contains name
func (f *WindowsProcessFinder) FindProcessesByName(name string) ([]process.ProcessInfo, error) {
	snapshot, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot failed: %w", err)
	}
	defer windows.CloseHandle(snapshot)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var results []process.ProcessInfo
	for err = windows.Process32First(snapshot, &entry); err == nil; err = windows.Process32Next(snapshot, &entry) {
		exe := windows.UTF16ToString(entry.ExeFile[:])
		if strings.Contains(exe, name) {
			results = append(results, process.ProcessInfo{
				PID:  process.ProcessID(entry.ProcessID),
				Name: exe,
			})
		}
	}

	if !errors.Is(err, windows.ERROR_NO_MORE_FILES) {
		return nil, fmt.Errorf("Process32Next failed: %w", err)
	}

	return results, nil
}
