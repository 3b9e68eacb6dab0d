package presence

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"dancefloor/internal/pkg/errs"
	"dancefloor/internal/pkg/logx"
)

// ErrFloorStopped is returned by requests made after Shutdown.
var ErrFloorStopped = errors.New("floor is stopped")

// inboxBuffer bounds how many events may queue before senders block.
const inboxBuffer = 1024

// Peer is one open connection as seen by the Floor.
type Peer interface {
	// ID returns the connection identity. It is compared for equality only.
	ID() string

	// Send queues msg without blocking and reports whether it was accepted.
	// It must be safe to call after Close.
	Send(msg []byte) bool

	// Close releases the connection's outbound queue. Repeated calls are no-ops.
	Close()
}

type connectCmd struct{ peer Peer }

type joinCmd struct{ id, name string }

type moveCmd struct {
	id   string
	x, y float64
}

type changeAvatarCmd struct{ id string }

type disconnectCmd struct{ id string }

type snapshotCmd struct{ reply chan<- []Participant }

// Stats is a point-in-time count of the Floor's state.
type Stats struct {
	Participants int `json:"participants"`
	Connections  int `json:"connections"`
}

// Floor owns the Registry and the set of open connections.
// A single goroutine applies every event in arrival order, so each mutation and its
// broadcast happen as one step with no interleaving.
type Floor struct {
	registry *Registry

	// peers holds every open connection, joined or not. Only the event loop touches it.
	peers map[string]Peer

	// inbox carries events from all connections to the event loop.
	inbox chan any

	// stopChan is closed to end the event loop. done is closed once it has returned.
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	participants atomic.Int64
	connections  atomic.Int64

	logger zerolog.Logger
}

// NewFloor creates a Floor around registry. Call Start to begin processing events.
func NewFloor(registry *Registry) *Floor {
	return &Floor{
		registry: registry,
		peers:    make(map[string]Peer),
		inbox:    make(chan any, inboxBuffer),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logx.Component("Floor"),
	}
}

// Start launches the event loop.
func (f *Floor) Start() {
	if f.started.CompareAndSwap(false, true) {
		go f.run()
	}
}

// Shutdown stops the event loop, closes every connection and waits for the loop to exit.
func (f *Floor) Shutdown() {
	f.stopOnce.Do(func() {
		f.logger.Info().Msg("Received stop signal. Stopping floor.")
		close(f.stopChan)
	})

	if f.started.Load() {
		<-f.done
	}
}

// Stats returns the current participant and connection counts.
func (f *Floor) Stats() Stats {
	return Stats{
		Participants: int(f.participants.Load()),
		Connections:  int(f.connections.Load()),
	}
}

// Connect registers peer and sends it the current participant list.
// It returns false if the Floor has stopped.
func (f *Floor) Connect(peer Peer) bool {
	return f.enqueue(connectCmd{peer: peer})
}

// Join asks for id to be added to the floor under name.
func (f *Floor) Join(id, name string) bool {
	return f.enqueue(joinCmd{id: id, name: name})
}

// Move asks for id's position to change to (x, y), clamped to the floor bounds.
func (f *Floor) Move(id string, x, y float64) bool {
	return f.enqueue(moveCmd{id: id, x: x, y: y})
}

// ChangeAvatar asks for id to be given a different avatar.
func (f *Floor) ChangeAvatar(id string) bool {
	return f.enqueue(changeAvatarCmd{id: id})
}

// Disconnect removes id's connection and, if it had joined, its participant.
func (f *Floor) Disconnect(id string) bool {
	return f.enqueue(disconnectCmd{id: id})
}

// Snapshot returns the current participants as seen by the event loop.
func (f *Floor) Snapshot(ctx context.Context) ([]Participant, error) {
	reply := make(chan []Participant, 1)

	select {
	case f.inbox <- snapshotCmd{reply: reply}:
	case <-f.stopChan:
		return nil, ErrFloorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case participants := <-reply:
		return participants, nil
	case <-f.done:
		return nil, ErrFloorStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// enqueue blocks until the event is queued or the Floor stops.
func (f *Floor) enqueue(cmd any) bool {
	select {
	case <-f.stopChan:
		return false
	default:
	}

	select {
	case f.inbox <- cmd:
		return true
	case <-f.stopChan:
		return false
	}
}

func (f *Floor) run() {
	defer close(f.done)
	defer f.closeAll()

	f.logger.Info().Msg("Floor event loop started.")

	for {
		select {
		case <-f.stopChan:
			f.logger.Info().Msg("Floor event loop stopped.")
			return
		case cmd := <-f.inbox:
			f.handle(cmd)
			f.participants.Store(int64(f.registry.Len()))
			f.connections.Store(int64(len(f.peers)))
		}
	}
}

func (f *Floor) handle(cmd any) {
	switch c := cmd.(type) {
	case connectCmd:
		f.handleConnect(c.peer)
	case joinCmd:
		f.handleJoin(c.id, c.name)
	case moveCmd:
		if p, ok := f.registry.Move(c.id, c.x, c.y); ok {
			f.broadcast(EventUserMoved, UserMovedPayload{ID: p.ID, X: p.X, Y: p.Y})
		}
	case changeAvatarCmd:
		if p, ok := f.registry.ChangeAppearance(c.id); ok {
			f.broadcast(EventUserMoved, UserMovedPayload{ID: p.ID, X: p.X, Y: p.Y, AvatarURL: p.AvatarURL})
		}
	case disconnectCmd:
		f.handleDisconnect(c.id)
	case snapshotCmd:
		c.reply <- f.registry.Snapshot()
	default:
		f.logger.Error().Type("command", cmd).Msg("Unknown floor command.")
	}
}

func (f *Floor) handleConnect(peer Peer) {
	id := peer.ID()

	if _, exists := f.peers[id]; exists {
		f.logger.Error().Str("conn_id", id).Msg("Connection id already registered. Closing new connection.")
		peer.Close()
		return
	}

	f.peers[id] = peer

	f.logger.Debug().
		Str("conn_id", id).
		Int("connections", len(f.peers)).
		Msg("Connection registered.")

	f.sendTo(peer, EventInitialUsers, f.registry.Snapshot())
}

func (f *Floor) handleJoin(id, name string) {
	peer, ok := f.peers[id]
	if !ok {
		f.logger.Debug().Str("conn_id", id).Msg("Ignoring join for closed connection.")
		return
	}

	p, err := f.registry.Join(id, name)
	if err != nil {
		if errs.HasCode(err, errs.ErrAlreadyJoined) {
			f.logger.Debug().Str("conn_id", id).Msg("Repeated join rejected.")
		} else {
			f.logger.Warn().Err(err).Str("conn_id", id).Msg("Join rejected.")
		}
		f.sendError(peer, err)
		return
	}

	f.logger.Info().
		Str("conn_id", id).
		Str("name", p.Name).
		Int("x", p.X).
		Int("y", p.Y).
		Int("participants", f.registry.Len()).
		Msg("Participant joined.")

	f.broadcast(EventNewUser, p)
}

func (f *Floor) handleDisconnect(id string) {
	if peer, ok := f.peers[id]; ok {
		delete(f.peers, id)
		peer.Close()
	}

	if _, ok := f.registry.Remove(id); !ok {
		return
	}

	f.logger.Info().
		Str("conn_id", id).
		Int("participants", f.registry.Len()).
		Msg("Participant left.")

	f.broadcast(EventUserDisconnected, id)
}

// broadcast sends one event to every open connection. A full queue drops the event for that connection only.
func (f *Floor) broadcast(t EventType, payload any) {
	msg, err := EncodeEvent(t, payload)
	if err != nil {
		f.logger.Error().Err(err).Str("event", string(t)).Msg("Error marshaling event for broadcast.")
		return
	}

	for id, peer := range f.peers {
		if !peer.Send(msg) {
			f.logger.Warn().
				Str("conn_id", id).
				Str("event", string(t)).
				Msg("Connection send queue full, event dropped.")
		}
	}
}

func (f *Floor) sendTo(peer Peer, t EventType, payload any) {
	msg, err := EncodeEvent(t, payload)
	if err != nil {
		f.logger.Error().Err(err).Str("event", string(t)).Msg("Error marshaling event.")
		return
	}

	if !peer.Send(msg) {
		f.logger.Warn().
			Str("conn_id", peer.ID()).
			Str("event", string(t)).
			Msg("Connection send queue full, event dropped.")
	}
}

func (f *Floor) sendError(peer Peer, err error) {
	payload := ErrorPayload{Code: errs.ErrUnknown, Message: "Something went wrong. Please try again."}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		payload = ErrorPayload{Code: customErr.Code, Message: customErr.Message}
	}

	f.sendTo(peer, EventError, payload)
}

// closeAll releases every connection when the loop exits.
func (f *Floor) closeAll() {
	for id, peer := range f.peers {
		peer.Close()
		delete(f.peers, id)
	}
	f.connections.Store(0)
}
