package process

// MemoryReadWriter is the only path by which bytes cross the process boundary.
// Implementations must either transfer exactly the requested number of bytes or
// return an error.
type MemoryReadWriter interface {
	// ReadMemory reads memory from the process at the specified address
	ReadMemory(addr ProcessMemoryAddress, size ProcessMemorySize) ([]byte, error)

	// WriteMemory writes data to the process memory at the specified address
	WriteMemory(addr ProcessMemoryAddress, data []byte) error
}

// Process is an attached OS process. A Process exclusively owns its OS resource
// and releases it on Close.
type Process interface {
	MemoryReadWriter

	// GetPID returns the process ID
	GetPID() ProcessID

	// Path returns the path of the executable backing the process
	Path() (string, error)

	// Modules enumerates the modules currently loaded in the process address space
	Modules() ([]ModuleInfo, error)

	// IsAlive probes whether the process is still running
	IsAlive() bool

	// Close releases the handle; calling it more than once is a no-op
	Close() error
}

// Finder locates and opens processes by executable name.
type Finder interface {
	// FindProcess opens the first process whose executable name contains name.
	// It returns ErrProcessNotFound when nothing matches.
	FindProcess(name string) (Process, error)
}
