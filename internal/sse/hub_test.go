package sse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PulsaGit/promo_api/internal/worker"
)

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	c1 := hub.Register("client-1")
	c2 := hub.Register("client-2")
	require.Equal(t, 2, hub.ClientCount())

	hub.Broadcast(&RunEvent{Event: EventRunProgress, Run: "isimple", Status: worker.RunRunning, Total: 45, Processed: 20})

	for _, c := range []*Client{c1, c2} {
		var got RunEvent
		require.NoError(t, json.Unmarshal(<-c.Events, &got))
		assert.Equal(t, EventRunProgress, got.Event)
		assert.Equal(t, "isimple", got.Run)
		assert.Equal(t, 20, got.Processed)
	}
}

func TestHubDropsWhenClientBufferFull(t *testing.T) {
	hub := NewHub()
	c := hub.Register("slow")

	// Fill the buffer and one extra; the extra must be dropped, not block.
	for i := 0; i < cap(c.Events)+1; i++ {
		hub.Broadcast(&RunEvent{Event: EventRunProgress, Run: "tri", Processed: i})
	}
	assert.Len(t, c.Events, cap(c.Events))
}

func TestHubUnregisterClosesChannel(t *testing.T) {
	hub := NewHub()
	c := hub.Register("gone")
	hub.Unregister("gone")

	assert.Equal(t, 0, hub.ClientCount())
	_, open := <-c.Events
	assert.False(t, open)

	// Double unregister is a no-op.
	hub.Unregister("gone")
}
