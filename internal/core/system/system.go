package system

import "time"

// Phase orders systems within one frame.
type Phase int

const (
	PhaseEvents     Phase = iota // 0: deliver last frame's events
	PhasePreUpdate               // 1
	PhaseUpdate                  // 2: game logic
	PhasePostUpdate              // 3
	PhaseCleanup                 // 4: destroy queued entities
)

func (p Phase) String() string {
	switch p {
	case PhaseEvents:
		return "Events"
	case PhasePreUpdate:
		return "PreUpdate"
	case PhaseUpdate:
		return "Update"
	case PhasePostUpdate:
		return "PostUpdate"
	case PhaseCleanup:
		return "Cleanup"
	}
	return "Unknown"
}

// System is implemented by every per-frame system.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
