package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func queued(jobID string) State {
	return State{JobID: jobID, Status: StatusQueued}
}

func TestTransitionProgress(t *testing.T) {
	s := queued("j1")

	next, follow := transition(s, Event{JobID: "j1", Kind: EventProgress, Step: 1, TotalSteps: 20})
	assert.Equal(t, followNone, follow)
	assert.Equal(t, StatusRunning, next.Status, "first progress event moves Queued to Running")
	assert.Equal(t, 1, next.CurrentStep)
	assert.Equal(t, 20, next.TotalSteps)

	preview := &ArtifactRef{Filename: "preview.png"}
	next, _ = transition(next, Event{JobID: "j1", Kind: EventProgress, Step: 2, TotalSteps: 20, Preview: preview})
	assert.Equal(t, 2, next.CurrentStep)
	require.NotNil(t, next.Preview)
	assert.Equal(t, "preview.png", next.Preview.Filename)
}

func TestTransitionComplete(t *testing.T) {
	t.Run("with embedded outputs", func(t *testing.T) {
		outputs := []ArtifactRef{{Filename: "out_0001.png"}}
		next, follow := transition(queued("j1"), Event{JobID: "j1", Kind: EventComplete, Outputs: outputs})

		assert.Equal(t, followNone, follow)
		assert.Equal(t, StatusCompleted, next.Status)
		assert.Equal(t, outputs, next.Outputs)
	})

	t.Run("without outputs asks for the history fallback", func(t *testing.T) {
		next, follow := transition(queued("j1"), Event{JobID: "j1", Kind: EventComplete})

		assert.Equal(t, followFetchOutputs, follow)
		assert.Equal(t, StatusRunning, next.Status, "slot stays non-terminal until the lookup settles")
	})
}

func TestTransitionError(t *testing.T) {
	next, follow := transition(queued("j1"), Event{JobID: "j1", Kind: EventError, Message: "OOM", Stage: "3"})

	assert.Equal(t, followNone, follow)
	assert.Equal(t, StatusFailed, next.Status)
	var remoteErr *RemoteError
	require.ErrorAs(t, next.Err, &remoteErr)
	assert.Equal(t, "OOM", remoteErr.Message)
	assert.Equal(t, "3", remoteErr.Stage)
}

func TestTransitionFiltersOtherJobs(t *testing.T) {
	s := queued("j1")
	next, follow := transition(s, Event{JobID: "j2", Kind: EventError, Message: "boom"})

	assert.Equal(t, followNone, follow)
	assert.Equal(t, s, next, "events for other jobs on the shared stream are ignored")
}

func TestTransitionTerminalStability(t *testing.T) {
	outputs := []ArtifactRef{{Filename: "final.png"}}
	done, _ := transition(queued("j1"), Event{JobID: "j1", Kind: EventComplete, Outputs: outputs})
	require.Equal(t, StatusCompleted, done.Status)

	stale := []Event{
		{JobID: "j1", Kind: EventProgress, Step: 99, TotalSteps: 100},
		{JobID: "j1", Kind: EventError, Message: "late"},
		{JobID: "j1", Kind: EventComplete},
	}
	for _, ev := range stale {
		next, follow := transition(done, ev)
		assert.Equal(t, followNone, follow)
		assert.Equal(t, done.Status, next.Status)
		assert.Equal(t, done.Outputs, next.Outputs)
		assert.NoError(t, next.Err)
	}
}

func TestTransitionDropsEventsBeforeQueued(t *testing.T) {
	s := State{JobID: "j1", Status: StatusSubmitting}
	next, follow := transition(s, Event{JobID: "j1", Kind: EventProgress, Step: 1})
	assert.Equal(t, followNone, follow)
	assert.Equal(t, s, next)
}
