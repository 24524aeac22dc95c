package gateway

import (
	"github.com/gin-gonic/gin"
)

// NewServer wires the public surface: account routes, chat-scoped routes
// behind authentication, the websocket endpoint and the attachment files.
func NewServer(handlers *Handlers, gate *Gate, filesDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	api := engine.Group("/api/v1")
	api.POST("/users/register", handlers.Register)
	api.POST("/users/login", handlers.Login)

	messages := api.Group("/message", handlers.AuthRequired())
	messages.GET("/:chatId", handlers.GetMessages)
	messages.POST("/attachment", handlers.SendAttachment)

	engine.GET("/ws", gate.Handle)
	engine.Static("/files", filesDir)

	return engine
}
