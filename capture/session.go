package capture

import (
	"fmt"
	"sync"

	"ausettings/fingerprint"
	"ausettings/game_settings"
	"ausettings/pointer_chain"
	"ausettings/process"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// Session owns a process handle together with the base offset of its build.
// The options object is located afresh on every snapshot transfer.
type Session struct {
	proc       process.Process
	acc        *process.Accessor
	fp         fingerprint.Fingerprint
	baseOffset uint32
	cfg        Config
	log        *logger.Logger

	// serializes snapshot transfers on this session
	opMu sync.Mutex
}

// Inspection is the resolved location of the options object
type Inspection struct {
	PID        process.ProcessID
	ModuleBase process.ProcessMemoryAddress
	BaseOffset uint32
	Hops       []pointer_chain.Hop
	StructBase process.ProcessMemoryAddress

	// Raw holds the options object as laid out by game_settings
	Raw []byte
}

// NewSession takes ownership of p
func NewSession(p process.Process, fp fingerprint.Fingerprint, baseOffset uint32, cfg Config) *Session {
	s := &Session{
		proc:       p,
		acc:        process.NewAccessor(p),
		fp:         fp,
		baseOffset: baseOffset,
		cfg:        cfg,
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, fmt.Sprintf("session-%d", p.GetPID()))),
	}
	s.log.Infoln("Captured build", fp, "with base offset", fmt.Sprintf("0x%x", baseOffset))
	return s
}

func (s *Session) PID() process.ProcessID               { return s.proc.GetPID() }
func (s *Session) Fingerprint() fingerprint.Fingerprint { return s.fp }
func (s *Session) BaseOffset() uint32                   { return s.baseOffset }

// Alive probes the underlying process
func (s *Session) Alive() bool {
	return s.proc.IsAlive()
}

// Close releases the process handle
func (s *Session) Close() error {
	s.log.Debugln("Releasing process handle")
	return s.proc.Close()
}

func (s *Session) resolve() (process.ProcessMemoryAddress, error) {
	moduleBase, err := process.BaseAddressOfModule(s.proc, s.cfg.ModuleName)
	if err != nil {
		return 0, err
	}
	return s.cfg.Chain.Resolve(s.acc, moduleBase, s.baseOffset)
}

// ReadSnapshot resolves the options object once and reads every field
func (s *Session) ReadSnapshot() (game_settings.Snapshot, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	base, err := s.resolve()
	if err != nil {
		return game_settings.Snapshot{}, err
	}
	return game_settings.Read(s.acc, base)
}

// WriteSnapshot resolves the options object once and writes snap into it.
// A failure leaves whatever was written before it in place.
func (s *Session) WriteSnapshot(snap game_settings.Snapshot) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	base, err := s.resolve()
	if err != nil {
		return err
	}
	if err := game_settings.Write(s.acc, base, snap, game_settings.WriteOptions{AllowUncontrollable: s.cfg.AllowUncontrollable}); err != nil {
		return err
	}

	s.log.Infoln("Wrote settings to", base.ToString())
	return nil
}

// Inspect walks the chain, reporting every hop, and copies the raw object
func (s *Session) Inspect() (Inspection, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	in := Inspection{PID: s.proc.GetPID(), BaseOffset: s.baseOffset}

	moduleBase, err := process.BaseAddressOfModule(s.proc, s.cfg.ModuleName)
	if err != nil {
		return in, err
	}
	in.ModuleBase = moduleBase

	in.Hops, err = s.cfg.Chain.Walk(s.acc, moduleBase, s.baseOffset)
	if err != nil {
		return in, err
	}
	in.StructBase = process.ProcessMemoryAddress(in.Hops[len(in.Hops)-1].Value)

	in.Raw, err = s.proc.ReadMemory(in.StructBase, game_settings.Size())
	if err != nil {
		return in, fmt.Errorf("%w: object at %s: %w", process.ErrMemoryAccessFailed, in.StructBase.ToString(), err)
	}
	return in, nil
}
