// Package navigate routes the send flow between screens and publishes each
// transition to the connected UI.
package navigate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Klingon-tech/btcsend/pkg/logging"
)

// Routes of the Bitcoin send flow.
const (
	RouteSendBtc    = "/send/btc"
	RouteConfirmBtc = "/send/btc/confirm"
)

const maxHistory = 50

// ConfirmBtcState is the payload carried to the confirm-and-sign screen.
type ConfirmBtcState struct {
	Tx        string `json:"tx"`
	Recipient string `json:"recipient"`
	Fee       uint64 `json:"fee"`
}

// Event is one navigation.
type Event struct {
	ID    string           `json:"id"`
	Route string           `json:"route"`
	State *ConfirmBtcState `json:"state,omitempty"`
	At    time.Time        `json:"at"`
}

// Sink receives navigation events.
type Sink interface {
	Navigate(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Navigate calls f.
func (f SinkFunc) Navigate(e Event) { f(e) }

// Router tracks the current route and fans events out to sinks.
type Router struct {
	mu      sync.RWMutex
	current Event
	history []Event
	sinks   []Sink
	log     *logging.Logger
}

// NewRouter creates a router positioned on the send form.
func NewRouter(sinks ...Sink) *Router {
	return &Router{
		current: Event{ID: uuid.NewString(), Route: RouteSendBtc, At: time.Now()},
		sinks:   sinks,
		log:     logging.GetDefault().Component("navigate"),
	}
}

// AddSink registers another event receiver.
func (r *Router) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// ToConfirmAndSignBtcTransaction opens the confirm screen with the
// transaction, its recipient and fee.
func (r *Router) ToConfirmAndSignBtcTransaction(txHex, recipient string, fee uint64) Event {
	return r.push(RouteConfirmBtc, &ConfirmBtcState{
		Tx:        txHex,
		Recipient: recipient,
		Fee:       fee,
	})
}

// BackToSendForm returns to the send form, keeping the last confirm state so
// the form can be refilled.
func (r *Router) BackToSendForm() Event {
	r.mu.RLock()
	state := r.current.State
	r.mu.RUnlock()
	return r.push(RouteSendBtc, state)
}

// Current returns the latest event.
func (r *Router) Current() Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// History returns past events, oldest first.
func (r *Router) History() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Event(nil), r.history...)
}

func (r *Router) push(route string, state *ConfirmBtcState) Event {
	e := Event{
		ID:    uuid.NewString(),
		Route: route,
		State: state,
		At:    time.Now(),
	}

	r.mu.Lock()
	r.history = append(r.history, r.current)
	if len(r.history) > maxHistory {
		r.history = r.history[len(r.history)-maxHistory:]
	}
	r.current = e
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.Unlock()

	r.log.Debug("Navigate", "route", route, "id", e.ID)
	for _, s := range sinks {
		s.Navigate(e)
	}
	return e
}
