package game

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type addRoomRequest struct {
	room     Room
	respChan chan addRoomResponse
}

type addRoomResponse struct {
	id  string
	err error
}

type descLookupRequest struct {
	code     string
	respChan chan descLookupResponse
}

type descLookupResponse struct {
	desc RoomDescription
	err  error
}

type lobbyJoinRequest struct {
	roomId string
	jreq   roomJoinRequest
}

// lobby owns the room registry. Its actor goroutine is the only code that
// touches the rooms map, so create, remove, lookup and join forwarding can
// never race each other: a room cannot disappear between a lookup and the
// join it forwards.
type lobby struct {
	rooms             map[string]Room
	roomsDescriptions map[string]RoomDescription
	maxRooms          int

	addRoomReqs    chan addRoomRequest
	removeRoomChan chan string
	descLookupReqs chan descLookupRequest
	listRoomsReqs  chan chan []RoomDescription
	roomDescUpdate chan RoomDescription
	roomJoinReqs   chan lobbyJoinRequest

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
}

func NewLobby(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, maxRooms int) *lobby {
	return &lobby{
		rooms:             map[string]Room{},
		roomsDescriptions: map[string]RoomDescription{},
		maxRooms:          maxRooms,
		addRoomReqs:       make(chan addRoomRequest, 32),
		removeRoomChan:    make(chan string, 32),
		descLookupReqs:    make(chan descLookupRequest, 256),
		listRoomsReqs:     make(chan chan []RoomDescription, 256),
		roomDescUpdate:    make(chan RoomDescription, 256),
		roomJoinReqs:      make(chan lobbyJoinRequest, 256),
		idGenerator:       idgen,
		tickerCreator:     tickerCreator,
	}
}

func (l *lobby) RequestAddAndRunRoom(ctx context.Context, r Room) (string, error) {
	respChan := make(chan addRoomResponse, 1)
	select {
	case l.addRoomReqs <- addRoomRequest{room: r, respChan: respChan}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case resp := <-respChan:
		return resp.id, resp.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (l *lobby) ForwardPlayerJoinRequestToRoom(ctx context.Context, roomId string, jreq roomJoinRequest) {
	select {
	case l.roomJoinReqs <- lobbyJoinRequest{roomId: roomId, jreq: jreq}:
	case <-ctx.Done():
		jreq.errChan <- ctx.Err()
	}
}

func (l *lobby) RequestUpdateDescription(desc RoomDescription) {
	select {
	case l.roomDescUpdate <- desc:
	default:
	}
}

func (l *lobby) GetRoomDescription(ctx context.Context, code string) (RoomDescription, error) {
	respChan := make(chan descLookupResponse, 1)
	select {
	case l.descLookupReqs <- descLookupRequest{code: code, respChan: respChan}:
	case <-ctx.Done():
		return RoomDescription{}, ctx.Err()
	}
	select {
	case resp := <-respChan:
		return resp.desc, resp.err
	case <-ctx.Done():
		return RoomDescription{}, ctx.Err()
	}
}

func (l *lobby) ListOpenRooms(ctx context.Context) []RoomDescription {
	respChan := make(chan []RoomDescription, 1)
	select {
	case l.listRoomsReqs <- respChan:
		select {
		case resp := <-respChan:
			return resp
		case <-ctx.Done():
			return nil
		}
	case <-ctx.Done():
		return nil
	}
}

// RemoveRoom is called from room goroutines and must never block them: a
// blocking send here plus a join the lobby is forwarding to that same room
// would deadlock both actors. When the queue is full the request is dropped;
// the still-idle room asks again on its next tick.
func (l *lobby) RemoveRoom(roomId string) {
	select {
	case l.removeRoomChan <- roomId:
	default:
	}
}

func (l *lobby) LobbyActor(started chan struct{}) {
	ticker := l.tickerCreator.Create(time.Second)
	pingTicker := l.tickerCreator.Create(time.Second * 30)

	close(started)

	for {
		select {
		case now := <-ticker:
			for _, r := range l.rooms {
				r.Tick(now)
			}
		case <-pingTicker:
			for _, r := range l.rooms {
				r.PingPlayers()
			}

		case req := <-l.addRoomReqs:
			l.handleAddAndRunRoom(req)

		case roomId := <-l.removeRoomChan:
			l.handleRemoveRoom(roomId)

		case desc := <-l.roomDescUpdate:
			l.roomsDescriptions[desc.Id] = desc

		case req := <-l.descLookupReqs:
			l.handleDescLookup(req)

		case respChan := <-l.listRoomsReqs:
			l.handleListOpenRooms(respChan)

		case joinReq := <-l.roomJoinReqs:
			l.handleJoinReq(joinReq)
		}
	}
}

func (l *lobby) handleAddAndRunRoom(req addRoomRequest) {
	if l.maxRooms > 0 && len(l.rooms) >= l.maxRooms {
		req.respChan <- addRoomResponse{err: ErrCapacityExceeded}
		return
	}

	id := l.idGenerator.Generate()
	r := req.room
	r.SetParentLobby(l)
	r.SetId(id)

	l.rooms[id] = r
	l.roomsDescriptions[id] = r.Description()
	go r.GameLoop()

	req.respChan <- addRoomResponse{id: id}
	log.Info().Str("room", id).Msg("room created")
}

func (l *lobby) handleRemoveRoom(toRemoveId string) {
	room, ok := l.rooms[toRemoveId]
	if !ok {
		return
	}
	delete(l.rooms, toRemoveId)
	delete(l.roomsDescriptions, toRemoveId)
	room.CloseAndRelease()
	l.idGenerator.Dispose(toRemoveId)
	log.Info().Str("room", toRemoveId).Msg("room removed")
}

func (l *lobby) handleDescLookup(req descLookupRequest) {
	desc, ok := l.roomsDescriptions[strings.ToUpper(req.code)]
	if !ok {
		req.respChan <- descLookupResponse{err: ErrRoomNotFound}
		return
	}
	req.respChan <- descLookupResponse{desc: desc}
}

func (l *lobby) handleListOpenRooms(respChan chan []RoomDescription) {
	open := make([]RoomDescription, 0, len(l.roomsDescriptions))
	for _, description := range l.roomsDescriptions {
		if description.Status == STATUS_LOBBY.String() {
			open = append(open, description)
		}
	}
	respChan <- open
}

func (l *lobby) handleJoinReq(joinReq lobbyJoinRequest) {
	room, ok := l.rooms[strings.ToUpper(joinReq.roomId)]
	if !ok {
		joinReq.jreq.errChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(joinReq.jreq)
}
