package game

import (
	"context"
	"time"
)

type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

type Player interface {
	Id() string
	Username() string
	Role() Role
	Send(data []byte) error
	Ping() error
	SetRoom(r Room)
	CancelAndRelease()
}

type Room interface {
	RequestJoin(jreq roomJoinRequest)
	Send(ctx context.Context, e clientEventEnvelope)
	RemoveMe(ctx context.Context, p Player)
	Tick(now time.Time)
	PingPlayers()
	GameLoop()
	CloseAndRelease()
	Description() RoomDescription
	SetParentLobby(l Lobby)
	SetId(id string)
}

type Lobby interface {
	RequestAddAndRunRoom(ctx context.Context, r Room) (string, error)
	ForwardPlayerJoinRequestToRoom(ctx context.Context, roomId string, jreq roomJoinRequest)
	RequestUpdateDescription(desc RoomDescription)
	GetRoomDescription(ctx context.Context, code string) (RoomDescription, error)
	ListOpenRooms(ctx context.Context) []RoomDescription
	RemoveRoom(roomId string)
}
