//go:build windows

package process_windows

import (
	"fmt"
	"sync"
	"unsafe"

	"ausettings/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"golang.org/x/sys/windows"
)

const maxModules = 1024

// WindowsProcess implements the process.Process interface for Windows systems
type WindowsProcess struct {
	pid    process.ProcessID
	handle windows.Handle
	log    *logger.Logger
	mu     sync.Mutex
}

var _ process.Process = (*WindowsProcess)(nil)

// NewWithPID opens the process with the given PID for memory operations
func NewWithPID(pid process.ProcessID) (*WindowsProcess, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_ALL_ACCESS, false, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("OpenProcess failed: %w", err)
	}

	p := &WindowsProcess{
		pid:    pid,
		handle: handle,
		log:    logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("process-%d", pid))),
	}

	p.log.Infoln("Process opened")
	return p, nil
}

func (p *WindowsProcess) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handle == 0 {
		return nil
	}

	err := windows.CloseHandle(p.handle)
	p.handle = 0
	p.pid = 0
	p.log.Infoln("Process closed")
	p.log = logger.NewLogger(coloransi.Color(coloransi.Red, coloransi.ColorOrange, "process-not-open"))

	if err != nil {
		return fmt.Errorf("CloseHandle failed: %w", err)
	}
	return nil
}

func (p *WindowsProcess) GetPID() process.ProcessID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

func (p *WindowsProcess) getHandle() (windows.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.handle == 0 {
		return 0, process.ErrProcessNotOpen
	}
	return p.handle, nil
}

// Path returns the full image path of the process
func (p *WindowsProcess) Path() (string, error) {
	handle, err := p.getHandle()
	if err != nil {
		return "", err
	}

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return "", fmt.Errorf("QueryFullProcessImageName failed: %w", err)
	}
	return windows.UTF16ToString(buf[:size]), nil
}

// IsAlive reports whether the process object is still unsignaled
func (p *WindowsProcess) IsAlive() bool {
	handle, err := p.getHandle()
	if err != nil {
		return false
	}

	event, err := windows.WaitForSingleObject(handle, 0)
	return err == nil && event == uint32(windows.WAIT_TIMEOUT)
}

// Modules enumerates every module in the process, including 32-bit modules of a WOW64 target
func (p *WindowsProcess) Modules() ([]process.ModuleInfo, error) {
	handle, err := p.getHandle()
	if err != nil {
		return nil, err
	}

	var modules [maxModules]windows.Handle
	var needed uint32
	if err := windows.EnumProcessModulesEx(handle, &modules[0], uint32(unsafe.Sizeof(modules[0]))*maxModules, &needed, windows.LIST_MODULES_ALL); err != nil {
		return nil, fmt.Errorf("EnumProcessModulesEx failed: %w", err)
	}

	count := needed / uint32(unsafe.Sizeof(modules[0]))
	if count > maxModules {
		count = maxModules
	}

	result := make([]process.ModuleInfo, 0, count)
	for i := uint32(0); i < count; i++ {
		var name [windows.MAX_PATH]uint16
		if err := windows.GetModuleBaseName(handle, modules[i], &name[0], windows.MAX_PATH); err != nil {
			return nil, fmt.Errorf("GetModuleBaseName failed: %w", err)
		}

		var mi windows.ModuleInfo
		if err := windows.GetModuleInformation(handle, modules[i], &mi, uint32(unsafe.Sizeof(mi))); err != nil {
			return nil, fmt.Errorf("GetModuleInformation failed: %w", err)
		}

		var path [windows.MAX_PATH]uint16
		_ = windows.GetModuleFileNameEx(handle, modules[i], &path[0], windows.MAX_PATH)

		result = append(result, process.ModuleInfo{
			Name: windows.UTF16ToString(name[:]),
			Base: process.ProcessMemoryAddress(mi.BaseOfDll),
			Path: windows.UTF16ToString(path[:]),
		})
	}

	return result, nil
}

func (p *WindowsProcess) ReadMemory(addr process.ProcessMemoryAddress, size process.ProcessMemorySize) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	handle, err := p.getHandle()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	var bytesRead uintptr
	if err := windows.ReadProcessMemory(handle, uintptr(addr), &buf[0], uintptr(size), &bytesRead); err != nil {
		return nil, fmt.Errorf("ReadProcessMemory failed at %s: %w", addr.ToString(), err)
	}

	if bytesRead != uintptr(size) {
		return nil, fmt.Errorf("read incomplete: expected %d, got %d", size, bytesRead)
	}

	return buf, nil
}

func (p *WindowsProcess) WriteMemory(addr process.ProcessMemoryAddress, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	handle, err := p.getHandle()
	if err != nil {
		return err
	}

	var written uintptr
	if err := windows.WriteProcessMemory(handle, uintptr(addr), &data[0], uintptr(len(data)), &written); err != nil {
		return fmt.Errorf("WriteProcessMemory failed at %s: %w", addr.ToString(), err)
	}

	if written != uintptr(len(data)) {
		return fmt.Errorf("write incomplete: expected %d, got %d", len(data), written)
	}

	return nil
}
