package block

// State is the one-byte tag stored in every block header. Data blocks move between
// StateAvailable and StateUsed; StateListBegin and StateListEnd only ever describe the two
// sentinel nodes of a List.
type State byte

const (
	StateUninitialized State = 0
	StateAvailable     State = 'a'
	StateUsed          State = 'u'
	StateListBegin     State = 'B'
	StateListEnd       State = 'E'
)

var stateMapping = map[State]string{
	StateUninitialized: "Uninitialized",
	StateAvailable:     "Available",
	StateUsed:          "Used",
	StateListBegin:     "ListBegin",
	StateListEnd:       "ListEnd",
}

func (s State) String() string {
	str, ok := stateMapping[s]
	if !ok {
		return "Unknown"
	}
	return str
}

// IsData returns true for the states a block in region memory may legitimately carry
func (s State) IsData() bool {
	return s == StateAvailable || s == StateUsed
}
