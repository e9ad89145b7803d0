package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"KaziAI/middleware"
	"KaziAI/models"
	"KaziAI/pkg/cache"
	"KaziAI/pkg/config"
	"KaziAI/pkg/prompt"
	"KaziAI/pkg/services"
	"KaziAI/routes"
)

func openDB() (*gorm.DB, error) {
	if config.DBDriver == "mysql" {
		return gorm.Open(mysql.Open(config.MySQLDSN()), &gorm.Config{})
	}
	return gorm.Open(sqlite.Open(config.SQLitePath), &gorm.Config{})
}

func main() {
	db, err := openDB()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}, &models.MessageVersion{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	// prompt texts are read once here and injected; handlers never touch disk
	lib, err := prompt.Load(config.PromptDir)
	if err != nil {
		log.Fatalf("failed to load prompt library: %v", err)
	}
	engine := services.NewCompleter()

	middleware.SetRateLimitConfig(time.Duration(config.RateLimitWindowSeconds)*time.Second, config.RateLimitCapacity)
	middleware.SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)
	cache.SetMaxItems(config.ReplyCacheMaxItems)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "user-id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, lib, engine)
	r.Run(":" + config.Port)
}
