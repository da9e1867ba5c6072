// Package game_settings describes the in-memory layout of the lobby options
// object and moves it to and from a Snapshot.
package game_settings

import (
	"fmt"

	"ausettings/process"
)

// Snapshot holds every field of the options object. map and impostors are
// read for display but never persisted.
type Snapshot struct {
	Map               int32   `json:"-"`
	PlayerSpeed       float32 `json:"playerSpeed"`
	CrewmateVision    float32 `json:"crewmateVision"`
	ImpostorVision    float32 `json:"impostorVision"`
	KillCooldown      float32 `json:"killCooldown"`
	CommonTasks       int32   `json:"commonTasks"`
	LongTasks         int32   `json:"longTasks"`
	ShortTasks        int32   `json:"shortTasks"`
	EmergencyMeeting  int32   `json:"emergencyMeeting"`
	EmergencyCooldown int32   `json:"emergencyCooldown"`
	Impostors         int32   `json:"-"`
	KillDistance      int32   `json:"killDistance"`
	DiscussionTime    int32   `json:"discussionTime"`
	VotingTime        int32   `json:"votingTime"`
	ConfirmEject      bool    `json:"confirmEject"`
	VisualTasks       bool    `json:"visualTasks"`
	AnonymousVoting   bool    `json:"anonymousVoting"`
	TaskBarUpdates    int32   `json:"taskBarUpdates"`
}

// Memory is the typed access a snapshot transfer needs; process.Accessor has it
type Memory interface {
	ReadUINT8(addr process.ProcessMemoryAddress) (uint8, error)
	ReadINT32(addr process.ProcessMemoryAddress) (int32, error)
	ReadFLOAT32(addr process.ProcessMemoryAddress) (float32, error)
	WriteUINT8(addr process.ProcessMemoryAddress, v uint8) error
	WriteINT32(addr process.ProcessMemoryAddress, v int32) error
	WriteFLOAT32(addr process.ProcessMemoryAddress, v float32) error
}

// WriteOptions controls which fields Write touches
type WriteOptions struct {
	// AllowUncontrollable also writes fields that destabilise a running lobby
	AllowUncontrollable bool
}

// Read fetches every field in table order from the object at base
func Read(mem Memory, base process.ProcessMemoryAddress) (Snapshot, error) {
	var s Snapshot
	for _, f := range table {
		addr := base.Add(f.Offset)
		var err error
		switch f.Kind {
		case KindInt32:
			*f.int32Ref(&s), err = mem.ReadINT32(addr)
		case KindFloat32:
			*f.float32Ref(&s), err = mem.ReadFLOAT32(addr)
		case KindBool:
			var b uint8
			b, err = mem.ReadUINT8(addr)
			*f.boolRef(&s) = b != 0
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("read %s: %w", f.Name, err)
		}
	}
	return s, nil
}

// Write stores s into the object at base, stopping at the first failure.
// Fields marked Uncontrollable are skipped unless opts allow them.
func Write(mem Memory, base process.ProcessMemoryAddress, s Snapshot, opts WriteOptions) error {
	for _, f := range table {
		if f.Uncontrollable && !opts.AllowUncontrollable {
			continue
		}

		addr := base.Add(f.Offset)
		var err error
		switch f.Kind {
		case KindInt32:
			err = mem.WriteINT32(addr, *f.int32Ref(&s))
		case KindFloat32:
			err = mem.WriteFLOAT32(addr, *f.float32Ref(&s))
		case KindBool:
			var b uint8
			if *f.boolRef(&s) {
				b = 1
			}
			err = mem.WriteUINT8(addr, b)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return nil
}
