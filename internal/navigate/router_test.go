package navigate

import (
	"testing"

	"github.com/google/uuid"
)

func TestRouterStartsOnSendForm(t *testing.T) {
	r := NewRouter()
	if got := r.Current().Route; got != RouteSendBtc {
		t.Errorf("Current().Route = %s, want %s", got, RouteSendBtc)
	}
	if len(r.History()) != 0 {
		t.Error("history should start empty")
	}
}

func TestToConfirmAndSignBtcTransaction(t *testing.T) {
	var got []Event
	r := NewRouter(SinkFunc(func(e Event) { got = append(got, e) }))

	e := r.ToConfirmAndSignBtcTransaction("0200beef", "bc1qrecipient", 1234)

	if e.Route != RouteConfirmBtc {
		t.Errorf("Route = %s", e.Route)
	}
	if e.State == nil || e.State.Tx != "0200beef" || e.State.Recipient != "bc1qrecipient" || e.State.Fee != 1234 {
		t.Errorf("State = %+v", e.State)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", e.ID, err)
	}
	if len(got) != 1 || got[0].ID != e.ID {
		t.Errorf("sink received %v", got)
	}
	if r.Current().ID != e.ID {
		t.Error("current should be the new event")
	}
}

func TestBackToSendFormKeepsState(t *testing.T) {
	r := NewRouter()
	confirm := r.ToConfirmAndSignBtcTransaction("00", "bc1qx", 10)

	back := r.BackToSendForm()
	if back.Route != RouteSendBtc {
		t.Errorf("Route = %s", back.Route)
	}
	if back.State != confirm.State {
		t.Error("state should be carried back to the form")
	}

	history := r.History()
	if len(history) != 2 || history[1].ID != confirm.ID {
		t.Errorf("history = %+v", history)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	r := NewRouter()
	r.AddSink(SinkFunc(func(Event) {}))
	for i := 0; i < maxHistory+10; i++ {
		r.ToConfirmAndSignBtcTransaction("00", "bc1qx", uint64(i))
	}
	if n := len(r.History()); n != maxHistory {
		t.Errorf("len(History()) = %d, want %d", n, maxHistory)
	}
}
