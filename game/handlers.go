package game

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type websocketConnection struct {
	socket *websocket.Conn
}

func (wc *websocketConnection) Write(data []byte) error {
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteMessage(websocket.PingMessage, nil)
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConnection) Close(errCode string) {
	wc.socket.SetWriteDeadline(time.Now().Add(time.Second * 20))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode))
	wc.socket.Close()
}

func NewWebsocketConnection(conn *websocket.Conn) websocketConnection {
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return websocketConnection{conn}
}

type GameHandler struct {
	lobby   Lobby
	idleTTL time.Duration
}

func NewGameHandler(lobby Lobby, idleTTL time.Duration) *GameHandler {
	return &GameHandler{lobby: lobby, idleTTL: idleTTL}
}

type createRoomRequest struct {
	MaxPlayers       int    `json:"maxPlayers"`
	MinPlayers       int    `json:"minPlayers"`
	CountdownSeconds int    `json:"countdownSeconds"`
	MatchSeconds     int    `json:"matchSeconds"`
	Category         string `json:"category"`
}

func (req *createRoomRequest) applyDefaults() {
	if req.MaxPlayers == 0 {
		req.MaxPlayers = 4
	}
	if req.MinPlayers == 0 {
		req.MinPlayers = 2
	}
	if req.CountdownSeconds == 0 {
		req.CountdownSeconds = 3
	}
	if req.MatchSeconds == 0 {
		req.MatchSeconds = 120
	}
}

func validateCreateRoomRequest(req createRoomRequest) (string, bool) {
	switch {
	case req.MaxPlayers < 2:
		return "maxPlayers must be at least 2", false
	case req.MaxPlayers > 16:
		return "maxPlayers cannot exceed 16", false
	case req.MinPlayers < 1:
		return "minPlayers must be at least 1", false
	case req.MinPlayers > req.MaxPlayers:
		return "minPlayers cannot exceed maxPlayers", false
	case req.CountdownSeconds < 0:
		return "countdownSeconds cannot be negative", false
	case req.CountdownSeconds > 60:
		return "countdownSeconds cannot exceed 60", false
	case req.MatchSeconds < 10:
		return "matchSeconds must be at least 10", false
	case req.MatchSeconds > 600:
		return "matchSeconds cannot exceed 600", false
	}
	return "", true
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	if id == "" {
		log.Error().Str("ip", ctx.ClientIP()).Msg("auth middleware did not set an id")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	req := createRoomRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-request-format"})
		return
	}
	req.applyDefaults()

	if msg, ok := validateCreateRoomRequest(req); !ok {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	configs := RoomConfigs{
		MaxPlayers:        req.MaxPlayers,
		MinPlayers:        req.MinPlayers,
		CountdownDuration: time.Duration(req.CountdownSeconds) * time.Second,
		MatchDuration:     time.Duration(req.MatchSeconds) * time.Second,
		Category:          req.Category,
	}

	room := NewRoom(configs, h.idleTTL, time.Now())
	code, err := h.lobby.RequestAddAndRunRoom(ctx.Request.Context(), room)
	if err != nil {
		if errors.Is(err, ErrCapacityExceeded) {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": ErrCapacityExceeded.Error()})
			return
		}
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"roomCode": code})
}

func (h *GameHandler) GetRoomHandler(ctx *gin.Context) {
	desc, err := h.lobby.GetRoomDescription(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": ErrRoomNotFound.Error()})
			return
		}
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
		return
	}
	ctx.JSON(http.StatusOK, desc)
}

func (h *GameHandler) ListRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": h.lobby.ListOpenRooms(ctx.Request.Context())})
}

// JoinRoomHandler upgrades the connection and hands it to the room. The
// handler goroutine becomes the connection's read pump.
func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	id := ctx.GetString("id")
	username := strings.TrimSpace(ctx.GetString("username"))
	if id == "" || username == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	role := ROLE_PLAYER
	if ctx.Query("role") == "spectator" {
		role = ROLE_SPECTATOR
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	socketConn := NewWebsocketConnection(conn)
	player := NewParticipant(id, username, role, &socketConn)

	jreq := NewRoomJoinRequest(player)
	h.lobby.ForwardPlayerJoinRequestToRoom(ctx.Request.Context(), ctx.Param("code"), jreq)

	select {
	case err := <-jreq.errChan:
		if err != nil {
			socketConn.Close(err.Error())
			return
		}
	case <-time.After(time.Second * 5):
		jreq.Abandon()
		// The room may have committed the join just as we gave up. If its
		// verdict arrives within the grace window we honor it; otherwise the
		// abandoned request is dropped by the room and nobody joined.
		select {
		case err := <-jreq.errChan:
			if err != nil {
				socketConn.Close(err.Error())
				return
			}
		case <-time.After(time.Second):
			socketConn.Close("server-timeout")
			return
		}
	}

	go player.WritePump()
	player.ReadPump()
}
