// Package process defines the narrow boundary between the capture engine and an
// attached OS process: handles, module lookup and typed memory access.
package process

import "errors"

// Backends live in their own packages:
// - process_linux: process_vm_readv/process_vm_writev against /proc
// - process_windows: ReadProcessMemory/WriteProcessMemory via Toolhelp32 and PSAPI
// - process_blob: an in-memory process image used when the target OS is not available

var (
	// ErrProcessNotFound is returned when no running process matches the requested executable name.
	ErrProcessNotFound = errors.New("process not found")

	// ErrModuleNotFound is returned when no loaded module in the process has the requested name.
	ErrModuleNotFound = errors.New("module not found")

	// ErrMemoryAccessFailed is returned when a read or write did not transfer the full requested width.
	ErrMemoryAccessFailed = errors.New("memory access failed")

	// ErrAddressNotMapped is returned when a memory address is not found within any mapped region of a process.
	ErrAddressNotMapped = errors.New("address not mapped")

	// ErrProcessNotOpen is returned when an operation requiring an open process is attempted
	// before the process has been successfully opened or after it has been closed.
	ErrProcessNotOpen = errors.New("process not open")
)
