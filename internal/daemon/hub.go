package daemon

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/tonimelisma/profilectl/internal/profile"
	"github.com/tonimelisma/profilectl/pkg/registry"
)

// Event types sent on the /v1/events stream.
const (
	EventSwitch = "switch"
	EventUpdate = "update"
)

// Event is the JSON payload broadcast to event stream subscribers.
type Event struct {
	Type     string           `json:"type"`
	Profile  profile.Profile  `json:"profile"`
	Previous *profile.Profile `json:"previous,omitempty"`
	At       time.Time        `json:"at"`
}

// hub fans events out to subscribers. Each subscriber owns a buffered
// channel; when the buffer is full the event is dropped rather than letting
// a slow reader block the switch path.
type hub struct {
	logger  *slog.Logger
	buffer  int
	subs    *registry.Registry[chan []byte]
	metrics *Metrics
}

func newHub(logger *slog.Logger, buffer int, metrics *Metrics) *hub {
	return &hub{
		logger:  logger,
		buffer:  buffer,
		subs:    registry.New[chan []byte](),
		metrics: metrics,
	}
}

// subscribe registers a new subscriber channel. The returned cancel func
// unregisters it; the caller drains nothing further after cancel returns.
func (h *hub) subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, h.buffer)
	remove := h.subs.Add(ch)
	h.metrics.subscribers.Inc()

	var once sync.Once

	cancel := func() {
		once.Do(func() {
			remove()
			h.metrics.subscribers.Dec()
		})
	}

	return ch, cancel
}

// broadcast marshals the event once and offers it to every subscriber.
func (h *hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshaling event", slog.String("type", ev.Type), slog.Any("error", err))

		return
	}

	for _, ch := range h.subs.Snapshot() {
		select {
		case ch <- data:
		default:
			h.metrics.eventsDroppedTotal.Inc()
			h.logger.Warn("dropping event for slow subscriber", slog.String("type", ev.Type))
		}
	}
}
