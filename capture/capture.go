// Package capture binds the engine to one running instance of the target: it
// finds the process, identifies its build and exposes snapshot transfer.
package capture

import (
	"fmt"

	"ausettings/fingerprint"
	"ausettings/pointer_chain"
	"ausettings/process"
)

const (
	DefaultProcessName = "Among Us.exe"
	DefaultModuleName  = "GameAssembly.dll"
)

// Config describes what to attach to and how to reach the options object
type Config struct {
	ProcessName         string
	ModuleName          string
	Chain               pointer_chain.Chain
	AllowUncontrollable bool
}

func DefaultConfig() Config {
	return Config{
		ProcessName: DefaultProcessName,
		ModuleName:  DefaultModuleName,
		Chain:       pointer_chain.Default,
	}
}

// Hasher fingerprints a module file
type Hasher interface {
	HashFile(path string) (fingerprint.Fingerprint, error)
}

// OffsetLookup resolves a fingerprint to its base offset
type OffsetLookup interface {
	BaseOffset(fp fingerprint.Fingerprint) (uint32, error)
}

// Capture finds the target, fingerprints the module next to its executable and
// looks the fingerprint up. The target's memory is not touched until the lookup
// succeeds. The process handle is closed on every failure path.
func Capture(finder process.Finder, hasher Hasher, catalog OffsetLookup, cfg Config) (*Session, error) {
	p, err := finder.FindProcess(cfg.ProcessName)
	if err != nil {
		return nil, err
	}

	fp, baseOffset, err := identify(p, hasher, catalog, cfg.ModuleName)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	return NewSession(p, fp, baseOffset, cfg), nil
}

func identify(p process.Process, hasher Hasher, catalog OffsetLookup, moduleName string) (fingerprint.Fingerprint, uint32, error) {
	exe, err := p.Path()
	if err != nil {
		return "", 0, fmt.Errorf("%w: executable path of pid %d: %w", fingerprint.ErrBinaryReadFailed, p.GetPID(), err)
	}

	fp, err := hasher.HashFile(fingerprint.SiblingPath(exe, moduleName))
	if err != nil {
		return "", 0, err
	}

	baseOffset, err := catalog.BaseOffset(fp)
	if err != nil {
		return "", 0, err
	}
	return fp, baseOffset, nil
}
