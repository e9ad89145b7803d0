package auth

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"KaziAI/controllers"
	"KaziAI/middleware"
)

// Register mounts /register, /login and /logout under the API group.
func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.POST("/register", controllers.Register(db))
	g.POST("/login", controllers.Login(db))
	g.POST("/logout", middleware.Identity(), controllers.Logout())
}
