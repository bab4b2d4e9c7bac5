package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (s *recordingSystem) Phase() Phase { return s.phase }

func (s *recordingSystem) Update(time.Duration) { *s.log = append(*s.log, s.name) }

func TestRunner_PhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recordingSystem{name: "cleanup", phase: PhaseCleanup, log: &log})
	r.Register(&recordingSystem{name: "logic-a", phase: PhaseUpdate, log: &log})
	r.Register(&recordingSystem{name: "events", phase: PhaseEvents, log: &log})
	r.Register(&recordingSystem{name: "logic-b", phase: PhaseUpdate, log: &log})

	r.Tick(16 * time.Millisecond)

	assert.Equal(t, []string{"events", "logic-a", "logic-b", "cleanup"}, log)
	assert.Equal(t, uint64(1), r.Frames())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "Cleanup", PhaseCleanup.String())
	assert.Equal(t, "Unknown", Phase(42).String())
}
