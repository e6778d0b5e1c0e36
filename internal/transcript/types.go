package transcript

// Turn is one conversational utterance. Insertion order is chronological
// order; the live session owns the turns, this package only ever sees
// snapshot copies.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GameTitle is stamped into every SaveRecord.
const GameTitle = "The Whispering Library Escape"

// SaveRecord is the persisted snapshot of a conversation plus metadata.
// Created once per save, never mutated afterwards.
type SaveRecord struct {
	Game       string `json:"game"`
	PlayerName string `json:"player_name"`
	SaveTime   string `json:"save_time"`
	TurnsCount int    `json:"turns_count"`
	History    []Turn `json:"history"`
}
