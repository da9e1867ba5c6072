// Package capturetest builds a synthetic running game for tests: an in-memory
// process image laid out like the real target, the module file it is
// fingerprinted from, and a catalog that knows the build.
package capturetest

import (
	"bytes"
	"testing"

	"ausettings/fingerprint"
	"ausettings/offset_catalog"
	"ausettings/process"
	"ausettings/process_blob"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const (
	ExePath    = "/games/Among Us/Among Us.exe"
	ModulePath = "/games/Among Us/GameAssembly.dll"

	ModuleBase process.ProcessMemoryAddress = 0x10000
	BaseOffset uint32                       = 0x20
	StructBase process.ProcessMemoryAddress = 0x60000
)

var moduleContent = []byte("GameAssembly build A")

type Target struct {
	FS          afero.Fs
	Finder      *process_blob.Finder
	Image       *process_blob.ProcessImage
	Fingerprint fingerprint.Fingerprint
	Catalog     *offset_catalog.Catalog
}

// New returns a live target whose options object sits at StructBase
func New(t testing.TB) *Target {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ModulePath, moduleContent, 0o644))

	fp, err := fingerprint.Sum(bytes.NewReader(moduleContent))
	require.NoError(t, err)

	tg := &Target{
		FS:          fs,
		Fingerprint: fp,
		Catalog:     offset_catalog.New(map[fingerprint.Fingerprint]offset_catalog.Entry{fp: {BaseOffset: BaseOffset}}),
	}
	tg.Image = NewImage(t, 1000, StructBase)
	tg.Finder = process_blob.NewFinder(tg.Image)
	return tg
}

// NewImage lays out a process with the chain [0x5C, 0x04] ending at structBase
func NewImage(t testing.TB, pid process.ProcessID, structBase process.ProcessMemoryAddress) *process_blob.ProcessImage {
	t.Helper()

	img := process_blob.NewProcessImage(pid, "Among Us.exe", ExePath)
	img.AddModule("UnityPlayer.dll", 0x8000)
	img.AddModule("GameAssembly.dll", ModuleBase)

	img.MapRegion(ModuleBase, 0x100)
	img.MapRegion(0x50000, 0x100)
	img.MapRegion(0x70000, 0x100)
	img.MapRegion(structBase, 0x100)

	require.NoError(t, img.PutUINT32(ModuleBase.Add(BaseOffset), 0x50000))
	require.NoError(t, img.PutUINT32(0x5005C, 0x70000))
	require.NoError(t, img.PutUINT32(0x70004, uint32(structBase)))
	return img
}

func (tg *Target) Hasher() *fingerprint.Hasher {
	return fingerprint.NewHasher(tg.FS)
}

// Restart kills the current image and starts a new one with its options
// object at structBase
func (tg *Target) Restart(t testing.TB, pid process.ProcessID, structBase process.ProcessMemoryAddress) {
	t.Helper()
	tg.Image.Kill()
	tg.Image = NewImage(t, pid, structBase)
	tg.Finder.Add(tg.Image)
}
