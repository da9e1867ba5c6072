package capture

import (
	"errors"
	"testing"

	"ausettings/capture/capturetest"
	"ausettings/fingerprint"
	"ausettings/game_settings"
	"ausettings/offset_catalog"
	"ausettings/process"
	"ausettings/process_blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapture(t *testing.T) {
	tg := capturetest.New(t)

	s, err := Capture(tg.Finder, tg.Hasher(), tg.Catalog, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, tg.Fingerprint, s.Fingerprint())
	assert.Equal(t, capturetest.BaseOffset, s.BaseOffset())
	assert.Equal(t, process.ProcessID(1000), s.PID())
	assert.True(t, s.Alive())
	assert.Zero(t, tg.Image.Accesses())
}

func TestCaptureUnknownFingerprint(t *testing.T) {
	tg := capturetest.New(t)
	empty := offset_catalog.New(nil)

	_, err := Capture(tg.Finder, tg.Hasher(), empty, DefaultConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, offset_catalog.ErrOffsetNotFound))
	assert.Zero(t, tg.Image.Accesses())
}

func TestCaptureProcessNotFound(t *testing.T) {
	tg := capturetest.New(t)
	tg.Image.Kill()

	_, err := Capture(tg.Finder, tg.Hasher(), tg.Catalog, DefaultConfig())
	assert.True(t, errors.Is(err, process.ErrProcessNotFound))
}

func TestCaptureModuleFileMissing(t *testing.T) {
	tg := capturetest.New(t)
	require.NoError(t, tg.FS.Remove(capturetest.ModulePath))

	_, err := Capture(tg.Finder, tg.Hasher(), tg.Catalog, DefaultConfig())
	assert.True(t, errors.Is(err, fingerprint.ErrBinaryReadFailed))
}

func TestSessionRoundTrip(t *testing.T) {
	tg := capturetest.New(t)
	s, err := Capture(tg.Finder, tg.Hasher(), tg.Catalog, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	want := game_settings.Snapshot{
		PlayerSpeed:     1.5,
		CrewmateVision:  0.5,
		KillCooldown:    30,
		VotingTime:      60,
		ConfirmEject:    true,
		AnonymousVoting: true,
		Impostors:       3,
	}
	require.NoError(t, s.WriteSnapshot(want))

	got, err := s.ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, int32(0), got.Impostors)
	got.Impostors = want.Impostors
	assert.Equal(t, want, got)
}

func TestSessionFollowsMovedStructure(t *testing.T) {
	tg := capturetest.New(t)
	s, err := Capture(tg.Finder, tg.Hasher(), tg.Catalog, DefaultConfig())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, tg.Image.PutFLOAT32(capturetest.StructBase+0x14, 1.0))
	got, err := s.ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), got.PlayerSpeed)

	// the game reallocates its options object
	moved := process.ProcessMemoryAddress(0x60080)
	require.NoError(t, tg.Image.PutFLOAT32(moved+0x14, 3.0))
	require.NoError(t, tg.Image.PutUINT32(0x70004, uint32(moved)))

	got, err = s.ReadSnapshot()
	require.NoError(t, err)
	assert.Equal(t, float32(3.0), got.PlayerSpeed)

	in, err := s.Inspect()
	require.NoError(t, err)
	assert.Equal(t, capturetest.ModuleBase, in.ModuleBase)
	assert.Equal(t, moved, in.StructBase)
	assert.Len(t, in.Hops, 3)
	require.Len(t, in.Raw, 0x54)
	assert.Equal(t, []byte{0x00, 0x00, 0x40, 0x40}, in.Raw[0x14:0x18])
}

func TestSessionDeadProcess(t *testing.T) {
	tg := capturetest.New(t)
	s, err := Capture(tg.Finder, tg.Hasher(), tg.Catalog, DefaultConfig())
	require.NoError(t, err)

	tg.Image.Kill()
	assert.False(t, s.Alive())

	_, err = s.ReadSnapshot()
	assert.True(t, errors.Is(err, process.ErrMemoryAccessFailed))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSessionModuleMissing(t *testing.T) {
	img := process_blob.NewProcessImage(5, "Among Us.exe", capturetest.ExePath)
	s := NewSession(img.Open(), "AA", 0x20, DefaultConfig())
	defer s.Close()

	_, err := s.ReadSnapshot()
	assert.True(t, errors.Is(err, process.ErrModuleNotFound))

	err = s.WriteSnapshot(game_settings.Snapshot{})
	assert.True(t, errors.Is(err, process.ErrModuleNotFound))
}
