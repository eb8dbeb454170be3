package flow

// State enumerates the orchestrator's flow states. Exactly one is active at
// a time and only the orchestrator drives transitions.
type State int

const (
	StateIdle State = iota
	StateSettingCreation
	StateLevelGeneration
	StateRoomGeneration
	StateImageGeneration
	StateInteractivePlay
	StateRoomSummarization
	StateRoomSelection
	StateLevelAdvance
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSettingCreation:
		return "setting-creation"
	case StateLevelGeneration:
		return "level-generation"
	case StateRoomGeneration:
		return "room-generation"
	case StateImageGeneration:
		return "image-generation"
	case StateInteractivePlay:
		return "interactive-play"
	case StateRoomSummarization:
		return "room-summarization"
	case StateRoomSelection:
		return "room-selection"
	case StateLevelAdvance:
		return "level-advance"
	case StateGameOver:
		return "game-over"
	default:
		return "unknown"
	}
}
