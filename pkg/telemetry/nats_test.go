package telemetry

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	msgs map[string][][]byte
	fail bool
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("nats: connection closed")
	}
	if p.msgs == nil {
		p.msgs = make(map[string][][]byte)
	}
	p.msgs[subject] = append(p.msgs[subject], data)
	return nil
}

func TestNATSBridge_ForwardsEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	pub := &fakePublisher{}
	bridge := NewNATSBridge(pub, "rf.test")
	bridge.Attach(hub)

	hub.Publish(Event{Type: EventWorkflowReleaseFailed, Token: "wf-7"})
	hub.Publish(Event{Type: EventWorkflowReleased, Token: "wf-8"})
	require.NoError(t, bridge.Close())

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.msgs["rf.test.workflow.release_failed"], 1)
	require.Len(t, pub.msgs["rf.test.workflow.released"], 1)

	var evt Event
	require.NoError(t, json.Unmarshal(pub.msgs["rf.test.workflow.release_failed"][0], &evt))
	assert.Equal(t, "wf-7", evt.Token)
	assert.Equal(t, 0, bridge.Dropped())
}

func TestNATSBridge_CountsPublishFailures(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	bridge := NewNATSBridge(&fakePublisher{fail: true}, "")
	assert.Equal(t, "remoteflow.events", bridge.subject)
	bridge.Attach(hub)

	hub.Publish(Event{Type: EventWorkflowChained})
	require.NoError(t, bridge.Close())
	assert.Equal(t, 1, bridge.Dropped())
}

func TestNATSBridge_CloseWithoutAttach(t *testing.T) {
	bridge := NewNATSBridge(&fakePublisher{}, "x")
	assert.NoError(t, bridge.Close())
}
