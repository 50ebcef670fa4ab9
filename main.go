package main

import (
	"api/auth"
	"api/config"
	"api/crypto"
	"api/game"
	"api/shared/logger"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func CreateServer(allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.GET("/health", func(ctx *gin.Context) { ctx.String(200, "healthy") })

	r.Use(func(ctx *gin.Context) {
		origin := ctx.Request.Header.Get("Origin")

		if origin == "" || slices.Contains(allowedOrigins, origin) {
			ctx.Next()
			return
		}
		ctx.String(http.StatusForbidden, "forbidden origin")
		ctx.Abort()
	})

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type",
			"Authorization",
			"Upgrade",
			"Connection",
			"Sec-WebSocket-Key",
			"Sec-WebSocket-Version",
			"Sec-WebSocket-Extensions",
			"Sec-WebSocket-Protocol",
		},
	}))

	return r
}

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Setup(cfg.Debug)

	tokenManager := crypto.NewJWTManager(cfg.JWTKey, cfg.TokenMaxAge)
	authHandler := auth.NewAuthHandler(tokenManager, cfg.TokenMaxAge)

	r := CreateServer(cfg.AllowedOrigins)

	{
		authGroup := r.Group("/auth")
		authGroup.POST("/guest", authHandler.GuestHandler)
	}

	idGen := game.NewIdGen()
	tickerGen := game.NewTickerGen()

	lobby := game.NewLobby(&idGen, &tickerGen, cfg.MaxRooms)

	lobbyStarted := make(chan struct{})
	go lobby.LobbyActor(lobbyStarted)
	<-lobbyStarted

	gameHandler := game.NewGameHandler(lobby, cfg.RoomTTL)
	{
		gameGroup := r.Group("/game")
		gameGroup.Use(authHandler.RequireAuthMiddleware(time.Second * 2))

		gameGroup.POST("/rooms", gameHandler.CreateRoomHandler)
		gameGroup.GET("/rooms", gameHandler.ListRoomsHandler)
		gameGroup.GET("/rooms/:code", gameHandler.GetRoomHandler)
		gameGroup.GET("/rooms/:code/ws", gameHandler.JoinRoomHandler)
	}

	if err := r.Run(cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
