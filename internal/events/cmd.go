package events

import tea "github.com/charmbracelet/bubbletea"

// Msg wraps an Event for delivery into the Bubble Tea runtime.
type Msg struct {
	Event
}

// WaitForEvent returns a tea.Cmd that blocks until the subscription
// delivers the next event. Call it again after handling each Msg to keep
// listening. A closed subscription yields nil.
func WaitForEvent(sub *Subscription) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-sub.C
		if !ok {
			return nil
		}
		return Msg{Event: ev}
	}
}
