package api

import (
	"Paddock/internal/api/middleware"
	"Paddock/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		conciergeGroup := apiGroup.Group("/concierge")
		{
			// WS 握手通过 query token 鉴权
			conciergeGroup.GET("/ws", group.WsHandler.Connect)

			authGroup := conciergeGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("/conversations", group.ConversationHandler.List)
				authGroup.GET("/conversations/:conversation_id/messages", group.ConversationHandler.History)
				authGroup.POST("/conversations/:conversation_id/read", group.ConversationHandler.MarkRead)
				authGroup.POST("/conversations/:conversation_id/archive", group.ConversationHandler.Archive)
				authGroup.POST("/messages", group.ConversationHandler.Send)
				authGroup.GET("/unread", group.ConversationHandler.UnreadTotal)
			}
		}
	}

	return r
}
