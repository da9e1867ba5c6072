package process

import "fmt"

// BaseAddressOfModule enumerates the modules of p and returns the base address of
// the first one whose name equals name exactly.
func BaseAddressOfModule(p Process, name string) (ProcessMemoryAddress, error) {
	modules, err := p.Modules()
	if err != nil {
		return 0, fmt.Errorf("enumerate modules of pid %d: %w", p.GetPID(), err)
	}

	for _, m := range modules {
		if m.Name == name {
			return m.Base, nil
		}
	}

	return 0, fmt.Errorf("%w: %q in pid %d", ErrModuleNotFound, name, p.GetPID())
}
