package process

import "fmt"

// ProcessID represents a unique identifier for a process
type ProcessID int

// ProcessInfo contains basic information about a process found during a scan
type ProcessInfo struct {
	PID  ProcessID // Process ID
	Name string    // Executable name (comm, exe basename or image name)
}

// ModuleInfo is a module loaded in a process address space.
// It is recomputed on every lookup and never cached.
type ModuleInfo struct {
	Name string               // Base name, e.g. "GameAssembly.dll"
	Base ProcessMemoryAddress // Base virtual address of the module image
	Path string               // Backing file, empty when unknown
}

func (m ModuleInfo) String() string {
	return fmt.Sprintf("%s@%s", m.Name, m.Base.ToString())
}
