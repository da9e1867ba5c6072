package game_settings

import (
	"errors"
	"math"
	"testing"

	"ausettings/process"
	"ausettings/process_blob"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const structBase process.ProcessMemoryAddress = 0x60000

func newImage(t *testing.T) (*process_blob.ProcessImage, *process.Accessor) {
	t.Helper()
	img := process_blob.NewProcessImage(1, "Among Us.exe", "")
	img.MapRegion(structBase, 0x100)
	return img, process.NewAccessor(img.Open())
}

func sample() Snapshot {
	return Snapshot{
		Map:               2,
		PlayerSpeed:       1.25,
		CrewmateVision:    0.75,
		ImpostorVision:    1.5,
		KillCooldown:      22.5,
		CommonTasks:       1,
		LongTasks:         2,
		ShortTasks:        3,
		EmergencyMeeting:  1,
		EmergencyCooldown: 15,
		Impostors:         3,
		KillDistance:      1,
		DiscussionTime:    15,
		VotingTime:        120,
		ConfirmEject:      true,
		VisualTasks:       false,
		AnonymousVoting:   true,
		TaskBarUpdates:    2,
	}
}

func TestReadPlayerSpeedBits(t *testing.T) {
	img, acc := newImage(t)
	bits := uint32(0x3FA00000) // 1.25
	require.NoError(t, img.PutUINT32(0x60014, bits))

	s, err := Read(acc, structBase)
	require.NoError(t, err)
	assert.Equal(t, bits, math.Float32bits(s.PlayerSpeed))
}

func TestRoundTripSkipsUncontrollable(t *testing.T) {
	img, acc := newImage(t)
	require.NoError(t, img.PutUINT32(0x60010, 1))
	require.NoError(t, img.PutUINT32(0x60038, 2))

	want := sample()
	require.NoError(t, Write(acc, structBase, want, WriteOptions{}))

	got, err := Read(acc, structBase)
	require.NoError(t, err)

	assert.Equal(t, int32(1), got.Map)
	assert.Equal(t, int32(2), got.Impostors)

	got.Map, got.Impostors = want.Map, want.Impostors
	assert.Equal(t, want, got)
}

func TestWriteAllowUncontrollable(t *testing.T) {
	_, acc := newImage(t)

	want := sample()
	require.NoError(t, Write(acc, structBase, want, WriteOptions{AllowUncontrollable: true}))

	got, err := Read(acc, structBase)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBoolsAreSingleBytes(t *testing.T) {
	img, acc := newImage(t)
	require.NoError(t, img.PutUINT32(0x6004C, 0xAABBCCDD))

	s := sample()
	require.NoError(t, Write(acc, structBase, s, WriteOptions{}))

	raw, err := img.Bytes(0x6004C, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 0, 1, 0xAA}, raw)
}

func TestReadFailureIsNotZero(t *testing.T) {
	img := process_blob.NewProcessImage(1, "Among Us.exe", "")
	img.MapRegion(structBase, 0x34)
	acc := process.NewAccessor(img.Open())

	_, err := Read(acc, structBase)
	require.Error(t, err)
	assert.True(t, errors.Is(err, process.ErrMemoryAccessFailed))
	assert.ErrorContains(t, err, "emergencyCooldown")
}

func TestSnapshotJSONOmitsUncontrollable(t *testing.T) {
	data, err := jsoniter.Marshal(sample())
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, jsoniter.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "map")
	assert.NotContains(t, fields, "impostors")
	assert.Contains(t, fields, "playerSpeed")
	assert.Contains(t, fields, "anonymousVoting")
	assert.Len(t, fields, len(table)-2)
}

func TestTable(t *testing.T) {
	assert.Len(t, Fields(), 18)
	assert.Equal(t, process.ProcessMemorySize(0x54), Size())

	f, ok := Lookup("playerSpeed")
	require.True(t, ok)
	assert.Equal(t, uint32(0x14), f.Offset)
	assert.Equal(t, process.ProcessMemorySize(4), f.Kind.Width())

	f, ok = Lookup("visualTasks")
	require.True(t, ok)
	assert.Equal(t, process.ProcessMemorySize(1), f.Kind.Width())

	s := sample()
	assert.Equal(t, float32(22.5), Fields()[4].Value(&s))

	_, ok = Lookup("nope")
	assert.False(t, ok)
}
