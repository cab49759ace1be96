package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"persist", PhasePersist, &log})
	r.Register(recorder{"catchup", PhaseCatchup, &log})
	r.Register(recorder{"world", PhaseUpdate, &log})
	r.Register(recorder{"events", PhaseEvents, &log})
	r.Register(recorder{"world2", PhaseUpdate, &log})

	r.Tick(50 * time.Millisecond)
	assert.Equal(t, []string{"events", "world", "world2", "catchup", "persist"}, log)
	assert.Equal(t, 5, r.Len())
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"world", PhaseUpdate, &log})
	r.Register(recorder{"persist", PhasePersist, &log})

	r.TickPhase(PhasePersist, 0)
	assert.Equal(t, []string{"persist"}, log)
}
