package game_settings

import (
	"fmt"

	"ausettings/process"
)

type Kind int

const (
	KindInt32 Kind = iota
	KindFloat32
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindBool:
		return "bool"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Width is the number of bytes the kind occupies in the target
func (k Kind) Width() process.ProcessMemorySize {
	if k == KindBool {
		return 1
	}
	return 4
}

// Field is one entry of the layout table
type Field struct {
	Name           string
	Offset         uint32
	Kind           Kind
	Uncontrollable bool

	ref func(s *Snapshot) interface{}
}

// Value returns the field's value in s
func (f Field) Value(s *Snapshot) interface{} {
	switch p := f.ref(s).(type) {
	case *int32:
		return *p
	case *float32:
		return *p
	case *bool:
		return *p
	}
	panic("game_settings: unsupported field reference for " + f.Name)
}

// the ref helpers panic when the table disagrees with the Snapshot type

func (f Field) int32Ref(s *Snapshot) *int32 {
	p, ok := f.ref(s).(*int32)
	if !ok {
		panic(fmt.Sprintf("game_settings: field %s is not %s", f.Name, KindInt32))
	}
	return p
}

func (f Field) float32Ref(s *Snapshot) *float32 {
	p, ok := f.ref(s).(*float32)
	if !ok {
		panic(fmt.Sprintf("game_settings: field %s is not %s", f.Name, KindFloat32))
	}
	return p
}

func (f Field) boolRef(s *Snapshot) *bool {
	p, ok := f.ref(s).(*bool)
	if !ok {
		panic(fmt.Sprintf("game_settings: field %s is not %s", f.Name, KindBool))
	}
	return p
}

var table = []Field{
	{Name: "map", Offset: 0x10, Kind: KindInt32, Uncontrollable: true, ref: func(s *Snapshot) interface{} { return &s.Map }},
	{Name: "playerSpeed", Offset: 0x14, Kind: KindFloat32, ref: func(s *Snapshot) interface{} { return &s.PlayerSpeed }},
	{Name: "crewmateVision", Offset: 0x18, Kind: KindFloat32, ref: func(s *Snapshot) interface{} { return &s.CrewmateVision }},
	{Name: "impostorVision", Offset: 0x1C, Kind: KindFloat32, ref: func(s *Snapshot) interface{} { return &s.ImpostorVision }},
	{Name: "killCooldown", Offset: 0x20, Kind: KindFloat32, ref: func(s *Snapshot) interface{} { return &s.KillCooldown }},
	{Name: "commonTasks", Offset: 0x24, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.CommonTasks }},
	{Name: "longTasks", Offset: 0x28, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.LongTasks }},
	{Name: "shortTasks", Offset: 0x2C, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.ShortTasks }},
	{Name: "emergencyMeeting", Offset: 0x30, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.EmergencyMeeting }},
	{Name: "emergencyCooldown", Offset: 0x34, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.EmergencyCooldown }},
	{Name: "impostors", Offset: 0x38, Kind: KindInt32, Uncontrollable: true, ref: func(s *Snapshot) interface{} { return &s.Impostors }},
	{Name: "killDistance", Offset: 0x40, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.KillDistance }},
	{Name: "discussionTime", Offset: 0x44, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.DiscussionTime }},
	{Name: "votingTime", Offset: 0x48, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.VotingTime }},
	{Name: "confirmEject", Offset: 0x4C, Kind: KindBool, ref: func(s *Snapshot) interface{} { return &s.ConfirmEject }},
	{Name: "visualTasks", Offset: 0x4D, Kind: KindBool, ref: func(s *Snapshot) interface{} { return &s.VisualTasks }},
	{Name: "anonymousVoting", Offset: 0x4E, Kind: KindBool, ref: func(s *Snapshot) interface{} { return &s.AnonymousVoting }},
	{Name: "taskBarUpdates", Offset: 0x50, Kind: KindInt32, ref: func(s *Snapshot) interface{} { return &s.TaskBarUpdates }},
}

// Fields returns the layout table in read order
func Fields() []Field {
	result := make([]Field, len(table))
	copy(result, table)
	return result
}

// Lookup finds a field by name
func Lookup(name string) (Field, bool) {
	for _, f := range table {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Size is the number of bytes from the object base to the end of the last field
func Size() process.ProcessMemorySize {
	var size process.ProcessMemorySize
	for _, f := range table {
		size = max(size, process.ProcessMemorySize(f.Offset)+f.Kind.Width())
	}
	return size
}
