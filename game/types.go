package game

import "time"

type RoomStatus int

// Status only moves forward through these values. The sole exception is the
// explicit restart, which resets a finished room to STATUS_LOBBY.
const (
	STATUS_LOBBY RoomStatus = iota
	STATUS_COUNTDOWN
	STATUS_ACTIVE
	STATUS_FINISHED
)

func (s RoomStatus) String() string {
	switch s {
	case STATUS_LOBBY:
		return "lobby"
	case STATUS_COUNTDOWN:
		return "countdown"
	case STATUS_ACTIVE:
		return "active"
	case STATUS_FINISHED:
		return "finished"
	}
	return "unknown"
}

type Role int

const (
	ROLE_PLAYER Role = iota
	ROLE_SPECTATOR
)

func (r Role) String() string {
	if r == ROLE_SPECTATOR {
		return "spectator"
	}
	return "player"
}

type RoomConfigs struct {
	MaxPlayers        int
	MinPlayers        int
	CountdownDuration time.Duration
	MatchDuration     time.Duration
	Category          string
}

type roomJoinRequest struct {
	player    Player
	errChan   chan error
	abandoned chan struct{}
}

func NewRoomJoinRequest(player Player) roomJoinRequest {
	return roomJoinRequest{
		player:    player,
		errChan:   make(chan error, 1),
		abandoned: make(chan struct{}),
	}
}

// Abandon tells the room the requester stopped waiting. A room that has not
// committed the join yet drops the request instead of admitting a member
// nobody is pumping.
func (jreq roomJoinRequest) Abandon() {
	close(jreq.abandoned)
}

type clientEventEnvelope struct {
	event clientEvent
	from  Player
}

// RoomDescription is the lobby's cached view of a room. Rooms push a fresh
// copy after every membership or status change, so lookups never have to
// touch room-actor state.
type RoomDescription struct {
	Id             string `json:"roomCode"`
	Status         string `json:"status"`
	PlayersCount   int    `json:"playersCount"`
	MaxPlayers     int    `json:"maxPlayers"`
	SpectatorCount int    `json:"spectatorCount"`
	Category       string `json:"category"`
}

// playerState is the per-member match state, owned by the room actor.
type playerState struct {
	ready      bool
	score      float64
	finished   bool
	finishedAt time.Time
	joinedAt   time.Time
}

type dataSendTask struct {
	to   Player
	data []byte
}
