package chat

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"KaziAI/controllers"
	"KaziAI/middleware"
	"KaziAI/pkg/prompt"
	"KaziAI/pkg/services"
)

// Register mounts the chat endpoints. These keep the legacy contract of a
// client-supplied user_id in the body, so no identity middleware here; the
// rate limiter still buckets by IP.
func Register(g *gin.RouterGroup, db *gorm.DB, lib *prompt.Library, engine services.Completer) {
	g.POST("/chat", middleware.RateLimit(), controllers.Chat(db, lib, engine))
	g.POST("/message/:message_id/regenerate", middleware.RateLimit(), controllers.Regenerate(db, lib, engine))
	g.GET("/ws/chat", controllers.ChatWS(db, lib, engine))
}
