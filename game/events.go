package game

import (
	"encoding/json"
	"time"
)

// Inbound event kinds.
const (
	EventPlayerReady   = "player_ready"
	EventMatchProgress = "match_progress"
	EventFinishMatch   = "finish_match"
	EventReaction      = "reaction"
	EventSignal        = "signal"
	EventRestartMatch  = "restart_match"
	EventLeaveRoom     = "leave_room"
)

// Outbound packet kinds.
const (
	PacketRoomState     = "room_state"
	PacketMatchStarted  = "match_started"
	PacketLiveProgress  = "live_progress"
	PacketMatchFinished = "match_finished"
	PacketReaction      = "reaction"
	PacketSignal        = "signal"
	PacketError         = "error"
)

type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type clientEvent interface {
	eventKind() string
}

type readyEvent struct{}

type progressEvent struct {
	Score float64 `json:"score"`
}

type finishEvent struct {
	FinalScore float64 `json:"finalScore"`
}

type reactionEvent struct {
	Emoji string `json:"emoji"`
}

type signalEvent struct {
	Target string `json:"target"`
	// Signal is opaque peer negotiation data, relayed verbatim.
	Signal json.RawMessage `json:"signal"`
}

type restartEvent struct{}

type leaveEvent struct{}

func (readyEvent) eventKind() string    { return EventPlayerReady }
func (progressEvent) eventKind() string { return EventMatchProgress }
func (finishEvent) eventKind() string   { return EventFinishMatch }
func (reactionEvent) eventKind() string { return EventReaction }
func (signalEvent) eventKind() string   { return EventSignal }
func (restartEvent) eventKind() string  { return EventRestartMatch }
func (leaveEvent) eventKind() string    { return EventLeaveRoom }

// decodeClientEvent turns a raw socket frame into a typed event. Unknown or
// malformed frames fail closed.
func decodeClientEvent(raw []byte) (clientEvent, error) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, ErrUnknownEventKind
	}

	switch msg.Type {
	case EventPlayerReady:
		return readyEvent{}, nil
	case EventMatchProgress:
		var ev progressEvent
		if err := unmarshalEventData(msg.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventFinishMatch:
		var ev finishEvent
		if err := unmarshalEventData(msg.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventReaction:
		var ev reactionEvent
		if err := unmarshalEventData(msg.Data, &ev); err != nil {
			return nil, err
		}
		if ev.Emoji == "" {
			ev.Emoji = "🧠"
		}
		return ev, nil
	case EventSignal:
		var ev signalEvent
		if err := unmarshalEventData(msg.Data, &ev); err != nil {
			return nil, err
		}
		return ev, nil
	case EventRestartMatch:
		return restartEvent{}, nil
	case EventLeaveRoom:
		return leaveEvent{}, nil
	}

	return nil, ErrUnknownEventKind
}

func unmarshalEventData(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return ErrUnknownEventKind
	}
	return nil
}

type participantSnapshot struct {
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Ready    bool    `json:"ready"`
	Score    float64 `json:"score"`
	Finished bool    `json:"finished"`
}

type roomSnapshot struct {
	RoomCode       string                `json:"roomCode"`
	Status         string                `json:"status"`
	Players        []participantSnapshot `json:"players"`
	SpectatorCount int                   `json:"spectatorCount"`
}

type playerScore struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
}

type standing struct {
	Username string  `json:"username"`
	Score    float64 `json:"score"`
	Finished bool    `json:"finished"`
}

type matchStartedPayload struct {
	RoomCode        string `json:"roomCode"`
	CountdownMillis int64  `json:"countdownMillis"`
}

type liveProgressPayload struct {
	RoomCode string        `json:"roomCode"`
	Players  []playerScore `json:"players"`
}

type matchFinishedPayload struct {
	RoomCode  string     `json:"roomCode"`
	Winner    string     `json:"winner"`
	Standings []standing `json:"standings"`
}

type reactionPayload struct {
	From  string `json:"from"`
	Emoji string `json:"emoji"`
}

type signalPayload struct {
	From   string          `json:"from"`
	Signal json.RawMessage `json:"signal"`
}

type errorPayload struct {
	Error string `json:"error"`
}

func marshalPacket(kind string, payload any) []byte {
	data, _ := json.Marshal(payload)
	packet, _ := json.Marshal(wireMessage{Type: kind, Data: data})
	return packet
}

func makeRoomStatePacket(snapshot roomSnapshot) []byte {
	return marshalPacket(PacketRoomState, snapshot)
}

func makeMatchStartedPacket(roomCode string, countdown time.Duration) []byte {
	return marshalPacket(PacketMatchStarted, matchStartedPayload{
		RoomCode:        roomCode,
		CountdownMillis: countdown.Milliseconds(),
	})
}

func makeLiveProgressPacket(roomCode string, players []playerScore) []byte {
	return marshalPacket(PacketLiveProgress, liveProgressPayload{RoomCode: roomCode, Players: players})
}

func makeMatchFinishedPacket(roomCode, winner string, standings []standing) []byte {
	return marshalPacket(PacketMatchFinished, matchFinishedPayload{
		RoomCode:  roomCode,
		Winner:    winner,
		Standings: standings,
	})
}

func makeReactionPacket(from, emoji string) []byte {
	return marshalPacket(PacketReaction, reactionPayload{From: from, Emoji: emoji})
}

func makeSignalPacket(from string, signal json.RawMessage) []byte {
	return marshalPacket(PacketSignal, signalPayload{From: from, Signal: signal})
}

func makeErrorPacket(err error) []byte {
	return marshalPacket(PacketError, errorPayload{Error: err.Error()})
}
