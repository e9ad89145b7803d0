package conversation

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"KaziAI/controllers"
	"KaziAI/middleware"
)

// Register mounts the history/conversation endpoints behind identity
// resolution (bearer token or the legacy user-id header).
func Register(g *gin.RouterGroup, db *gorm.DB) {
	authed := g.Group("/", middleware.Identity())
	authed.GET("/history", controllers.History(db))
	authed.POST("/conversation", controllers.CreateConversation(db))
	authed.GET("/conversation/:conversation_id", controllers.GetConversation(db))
	authed.DELETE("/conversation/:conversation_id", controllers.DeleteConversation(db))
}
