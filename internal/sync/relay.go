package sync

import (
	"context"
	"strings"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/host"
	"github.com/nhle/todo-board/internal/logger"
)

// RelayState represents the state of the connection to the host.
type RelayState int

const (
	RelayIdle RelayState = iota
	RelayStreaming
	RelayError
)

// RelayStatus holds the current connection state.
type RelayStatus struct {
	State       RelayState
	LastConnect time.Time
	Error       error
}

// RelayStatusMsg is a tea.Msg sent whenever the connection state changes.
type RelayStatusMsg struct {
	Status RelayStatus
}

// Remote is the part of the host client the relay drives.
type Remote interface {
	Stream(ctx context.Context, bus *events.Bus) error
	Publish(ctx context.Context, ev events.Event) error
}

// defaultRetry is the delay before reconnecting a broken stream.
const defaultRetry = 5 * time.Second

// publishTimeout is the maximum time allowed for forwarding one event.
const publishTimeout = 10 * time.Second

// Relay keeps the host's event stream flowing onto the local bus and
// forwards locally emitted calendar events back to the host.
type Relay struct {
	remote    Remote
	bus       *events.Bus
	log       *logger.Logger
	retry     time.Duration
	status    RelayStatus
	statusCh  chan RelayStatusMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	cancel    context.CancelFunc
	mu        gosync.Mutex
	running   bool
}

// New creates a relay. log may be nil.
func New(remote Remote, bus *events.Bus, log *logger.Logger) *Relay {
	if log == nil {
		log = logger.Nop()
	}
	return &Relay{
		remote:    remote,
		bus:       bus,
		log:       log.WithComponent("relay"),
		retry:     defaultRetry,
		statusCh:  make(chan RelayStatusMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// SetRetry overrides the reconnect delay.
func (r *Relay) SetRetry(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retry = d
}

// Start launches the stream and forwarding goroutines and returns a
// tea.Cmd that delivers the first status change.
func (r *Relay) Start() tea.Cmd {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.mu.Unlock()

	sub := r.bus.Listen(events.CalendarAssignmentsUpdated)
	go r.stream(ctx)
	go r.forward(ctx, sub)

	return r.waitForStatus()
}

// Stop halts the relay.
func (r *Relay) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}
	r.cancel()
	close(r.stopCh)
	r.running = false
}

// Reconnect skips the remaining retry delay.
func (r *Relay) Reconnect() tea.Cmd {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

// Status returns the current connection state.
func (r *Relay) Status() RelayStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// stream runs the reconnect loop.
func (r *Relay) stream(ctx context.Context) {
	for {
		r.setStatus(RelayStreaming, nil)
		err := r.remote.Stream(ctx, r.bus)
		if ctx.Err() != nil {
			return
		}
		r.log.WithError(err).Warnw("event stream broken, retrying")
		r.setStatus(RelayError, err)

		r.mu.Lock()
		retry := r.retry
		r.mu.Unlock()

		timer := time.NewTimer(retry)
		select {
		case <-r.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		case <-r.triggerCh:
			timer.Stop()
		}
	}
}

// forward sends local calendar events to the host. Events that came from
// the host are skipped.
func (r *Relay) forward(ctx context.Context, sub *events.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			if strings.HasPrefix(ev.Origin, host.RelayPrefix) {
				continue
			}
			pctx, cancel := context.WithTimeout(ctx, publishTimeout)
			if err := r.remote.Publish(pctx, ev); err != nil {
				r.log.WithError(err).Warnw("forwarding event failed", "event", ev.Name)
			}
			cancel()
		}
	}
}

// setStatus updates the connection state and notifies the UI.
func (r *Relay) setStatus(state RelayState, err error) {
	r.mu.Lock()
	r.status.State = state
	r.status.Error = err
	if state == RelayStreaming {
		r.status.LastConnect = time.Now()
	}
	msg := RelayStatusMsg{Status: r.status}
	r.mu.Unlock()

	select {
	case r.statusCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the relay
	}
}

// waitForStatus returns a tea.Cmd that waits for the next status change.
func (r *Relay) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-r.statusCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForNextStatus returns a tea.Cmd that waits for the next status
// change. Call it after handling each RelayStatusMsg.
func (r *Relay) WaitForNextStatus() tea.Cmd {
	return r.waitForStatus()
}
