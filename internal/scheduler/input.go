package scheduler

// InputEvent is a navigation or control command from the user.
type InputEvent int

const (
	MoveUp InputEvent = iota
	MoveDown
	MoveTop
	MoveBottom
	SelectEnter
	SwitchView
	Quit
)

func (e InputEvent) String() string {
	switch e {
	case MoveUp:
		return "move_up"
	case MoveDown:
		return "move_down"
	case MoveTop:
		return "move_top"
	case MoveBottom:
		return "move_bottom"
	case SelectEnter:
		return "select"
	case SwitchView:
		return "switch_view"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}
