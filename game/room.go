package game

import (
	"context"
	"time"
)

type room struct {
	// Identity / metadata
	id      string
	status  RoomStatus
	configs RoomConfigs
	idleTTL time.Duration

	// Members, in join order. Match state lives in states, keyed by member.
	players []Player
	states  map[Player]*playerState

	// Runtime state
	nextTick     time.Time // countdown end or match deadline, depending on status
	lastActivity time.Time
	createdAt    time.Time

	parentLobby Lobby

	// Outbound sends collected while handling one input, flushed afterwards.
	pendingSends []dataSendTask

	// Communication
	inbox                 chan clientEventEnvelope
	joinRequests          chan roomJoinRequest
	playerRemovalRequests chan Player
	ticks                 chan time.Time
	pingRequests          chan struct{}
	done                  chan struct{}
}

func NewRoom(configs RoomConfigs, idleTTL time.Duration, now time.Time) *room {
	return &room{
		status:                STATUS_LOBBY,
		configs:               configs,
		idleTTL:               idleTTL,
		players:               make([]Player, 0, configs.MaxPlayers),
		states:                make(map[Player]*playerState),
		lastActivity:          now,
		createdAt:             now,
		inbox:                 make(chan clientEventEnvelope, 1024),
		joinRequests:          make(chan roomJoinRequest),
		playerRemovalRequests: make(chan Player, 64),
		ticks:                 make(chan time.Time, 24),
		pingRequests:          make(chan struct{}, 1),
		done:                  make(chan struct{}),
	}
}

func (r *room) SetId(id string)        { r.id = id }
func (r *room) SetParentLobby(l Lobby) { r.parentLobby = l }

func (r *room) RequestJoin(jreq roomJoinRequest) {
	select {
	case r.joinRequests <- jreq:
	case <-r.done:
		jreq.errChan <- ErrRoomNotFound
	}
}

func (r *room) Send(ctx context.Context, e clientEventEnvelope) {
	select {
	case r.inbox <- e:
	case <-r.done:
	case <-ctx.Done():
	}
}

func (r *room) RemoveMe(ctx context.Context, p Player) {
	select {
	case r.playerRemovalRequests <- p:
	case <-r.done:
	case <-ctx.Done():
	}
}

func (r *room) Tick(now time.Time) {
	select {
	case r.ticks <- now:
	default:
	}
}

func (r *room) PingPlayers() {
	select {
	case r.pingRequests <- struct{}{}:
	default:
	}
}

// CloseAndRelease is called by the lobby actor once the room has been dropped
// from the registry. The room goroutine notices done and releases its members.
func (r *room) CloseAndRelease() {
	close(r.done)
}

func (r *room) Description() RoomDescription {
	return RoomDescription{
		Id:             r.id,
		Status:         r.status.String(),
		PlayersCount:   r.playerCount(),
		MaxPlayers:     r.configs.MaxPlayers,
		SpectatorCount: r.spectatorCount(),
		Category:       r.configs.Category,
	}
}
