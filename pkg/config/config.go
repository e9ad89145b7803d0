package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	AppEnv       string
	IsProduction bool

	Port      string
	JWTSecret string

	// database selection: "sqlite" (default) or "mysql"
	DBDriver   string
	SQLitePath string
	DBUser     string
	DBPassword string
	DBHost     string
	DBName     string

	// inference engine selection: "llama" (default), "openai" or "mock"
	ModelProvider       string
	LlamaServerURL      string
	LlamaTimeoutSeconds int
	OpenAIAPIKey        string
	OpenAIModel         string

	// directory holding system.txt plus one fragment file per category
	PromptDir string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	DuplicateWindowSeconds int
	ReplyCacheTTLSeconds   int
	ReplyCacheMaxItems     int
)

func init() {
	AppEnv = os.Getenv("APP_ENV")
	if AppEnv == "" {
		AppEnv = "development"
	}
	IsProduction = AppEnv == "production"

	// .env is a development convenience only
	if !IsProduction {
		if err := godotenv.Load(); err != nil {
			log.Printf("[config] no .env file loaded: %v", err)
		}
	}

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}
	JWTSecret = os.Getenv("JWT_SECRET_KEY")
	if IsProduction && JWTSecret == "" {
		log.Fatal("JWT_SECRET_KEY must be set in production")
	}

	DBDriver = os.Getenv("DB_DRIVER")
	if DBDriver == "" {
		DBDriver = "sqlite"
	}
	SQLitePath = os.Getenv("SQLITE_PATH")
	if SQLitePath == "" {
		SQLitePath = "app.db"
	}
	DBUser = os.Getenv("DB_USER")
	DBPassword = os.Getenv("DB_PASSWORD")
	DBHost = os.Getenv("DB_HOST")
	DBName = os.Getenv("DB_NAME")

	ModelProvider = os.Getenv("MODEL_PROVIDER")
	if ModelProvider == "" {
		ModelProvider = "llama"
	}
	LlamaServerURL = os.Getenv("LLAMA_SERVER_URL")
	if LlamaServerURL == "" {
		LlamaServerURL = "http://127.0.0.1:8080"
	}
	LlamaTimeoutSeconds = atoiOr(os.Getenv("LLAMA_TIMEOUT_SECONDS"), 120)
	OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	OpenAIModel = os.Getenv("OPENAI_MODEL")
	if OpenAIModel == "" {
		OpenAIModel = "gpt-4o-mini"
	}

	PromptDir = os.Getenv("PROMPT_DIR")
	if PromptDir == "" {
		PromptDir = "./prompts"
	}

	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	DuplicateWindowSeconds = atoiOr(os.Getenv("DUPLICATE_WINDOW_SECONDS"), 45)
	ReplyCacheTTLSeconds = atoiOr(os.Getenv("REPLY_CACHE_TTL_SECONDS"), 600)
	ReplyCacheMaxItems = atoiOr(os.Getenv("REPLY_CACHE_MAX_ITEMS"), 500)

	log.Printf("[config] AppEnv=%s DBDriver=%s ModelProvider=%s", AppEnv, DBDriver, ModelProvider)
	log.Printf("[config] PromptDir=%s", PromptDir)
	log.Printf("[config] RateLimit window=%ds capacity=%d dupWindow=%ds cacheTTL=%ds cacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, DuplicateWindowSeconds, ReplyCacheTTLSeconds, ReplyCacheMaxItems)
}

// MySQLDSN builds the gorm mysql DSN from the DB_* variables.
func MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		DBUser, DBPassword, DBHost, DBName)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
