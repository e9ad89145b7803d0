package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"KaziAI/pkg/prompt"
	"KaziAI/pkg/services"

	authRoutes "KaziAI/routes/auth"
	chatRoutes "KaziAI/routes/chat"
	convRoutes "KaziAI/routes/conversation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, lib *prompt.Library, engine services.Completer) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "labour relations chat backend running"})
	})

	api := r.Group("/api")
	authRoutes.Register(api, db)
	chatRoutes.Register(api, db, lib, engine)
	convRoutes.Register(api, db)
}
