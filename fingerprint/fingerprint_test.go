package fingerprint

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game/GameAssembly.dll", []byte("abc"), 0o644))

	fp, err := NewHasher(fs).HashFile("/game/GameAssembly.dll")
	require.NoError(t, err)
	assert.Equal(t, Fingerprint("BA7816BF8F01CFEA414140DE5DAE2223B00361A396177A9CB410FF61F20015AD"), fp)

	again, err := NewHasher(fs).HashFile("/game/GameAssembly.dll")
	require.NoError(t, err)
	assert.Equal(t, fp, again)
}

func TestHashFileMissing(t *testing.T) {
	_, err := NewHasher(afero.NewMemMapFs()).HashFile("/nope.dll")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBinaryReadFailed))
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, "/games/au/GameAssembly.dll", SiblingPath("/games/au/Among Us.exe", "GameAssembly.dll"))
	assert.Equal(t, `C:\Games\Among Us\GameAssembly.dll`, SiblingPath(`C:\Games\Among Us\Among Us.exe`, "GameAssembly.dll"))
	assert.Equal(t, "GameAssembly.dll", SiblingPath("Among Us.exe", "GameAssembly.dll"))
}
