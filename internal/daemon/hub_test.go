package daemon

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/profilectl/internal/profile"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	h := newHub(testLogger(), 4, NewMetrics())

	ch1, cancel1 := h.subscribe()
	defer cancel1()

	ch2, cancel2 := h.subscribe()
	defer cancel2()

	sent := Event{
		Type:    EventSwitch,
		Profile: profile.Profile{ID: "p1", Name: "Work"},
		At:      time.Now().UTC(),
	}
	h.broadcast(sent)

	for _, ch := range []<-chan []byte{ch1, ch2} {
		var got Event
		require.NoError(t, json.Unmarshal(<-ch, &got))
		assert.Equal(t, EventSwitch, got.Type)
		assert.Equal(t, "Work", got.Profile.Name)
	}
}

func TestHubDropsWhenSubscriberBufferFull(t *testing.T) {
	m := NewMetrics()
	h := newHub(testLogger(), 1, m)

	ch, cancel := h.subscribe()
	defer cancel()

	ev := Event{Type: EventUpdate, Profile: profile.Profile{ID: "p1"}}
	h.broadcast(ev)
	h.broadcast(ev)

	assert.Len(t, ch, 1)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.eventsDroppedTotal))
}

func TestHubCancelStopsDelivery(t *testing.T) {
	m := NewMetrics()
	h := newHub(testLogger(), 4, m)

	ch, cancel := h.subscribe()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.subscribers))

	cancel()
	cancel() // idempotent

	h.broadcast(Event{Type: EventUpdate, Profile: profile.Profile{ID: "p1"}})

	assert.Empty(t, ch)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.subscribers))
}
