package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"KaziAI/middleware"
	"KaziAI/models"
	"KaziAI/pkg/cache"
	"KaziAI/pkg/config"
	"KaziAI/pkg/prompt"
	svc "KaziAI/pkg/services"
	"KaziAI/pkg/store"
)

// sampling parameters for every assistant reply
const (
	replyMaxTokens   = 500
	replyTemperature = 0.3
)

// Chat handles one user turn: resolve (or create) the user and conversation,
// persist the user message, run classify -> assemble -> complete, persist
// the assistant message, return the reply. Both writes are committed before
// the response goes out.
func Chat(db *gorm.DB, lib *prompt.Library, engine svc.Completer) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		var body struct {
			UserID         uint   `json:"user_id"`
			Message        string `json:"message"`
			ConversationID *uint  `json:"conversation_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		message := strings.TrimSpace(body.Message)
		if message == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Empty message"})
			return
		}
		if !middleware.DuplicateGuard(strconv.FormatUint(uint64(body.UserID), 10), message) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "duplicate message"})
			return
		}

		user, err := st.GetOrCreateUser(body.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		var conv *models.Conversation
		if body.ConversationID != nil {
			conv, err = st.GetConversation(*body.ConversationID, user.ID)
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
				return
			}
		} else {
			conv, err = st.CreateConversation(user.ID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		if _, err := st.AppendMessage(conv.ID, models.SenderUser, message); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save message"})
			return
		}

		reply, err := completeWithCache(c.Request.Context(), lib, engine, message)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "inference engine unavailable"})
			return
		}

		if _, err := st.AppendMessage(conv.ID, models.SenderAssistant, reply); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save reply"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"reply":           reply,
			"conversation_id": conv.ID,
		})
	}
}

// Regenerate replaces an assistant message's content, preserving the prior
// content in its version history. Target selection and the snapshot are the
// store's job; this handler only maps outcomes to the wire.
func Regenerate(db *gorm.DB, lib *prompt.Library, engine svc.Completer) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("message_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Assistant message not found"})
			return
		}

		msg, err := st.Regenerate(uint(id), func(question string) (string, error) {
			// always a fresh completion; the reply cache is not consulted
			return engine.Complete(c.Request.Context(), lib.BuildPrompt(question), replyMaxTokens, replyTemperature)
		})
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrNotAssistant):
			c.JSON(http.StatusNotFound, gin.H{"error": "Assistant message not found"})
		case errors.Is(err, store.ErrNoUserTurn):
			c.JSON(http.StatusNotFound, gin.H{"error": "User question not found"})
		case errors.Is(err, svc.ErrUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "inference engine unavailable"})
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to regenerate"})
		default:
			versions := make([]string, 0, len(msg.Versions))
			for _, v := range msg.Versions {
				versions = append(versions, v.Content)
			}
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"message": gin.H{
					"id":         msg.ID,
					"sender":     msg.Sender,
					"content":    msg.Content,
					"versions":   versions,
					"created_at": msg.CreatedAt.Format(time.RFC3339),
				},
			})
		}
	}
}

func completeWithCache(ctx context.Context, lib *prompt.Library, engine svc.Completer, question string) (string, error) {
	p := lib.BuildPrompt(question)
	key := cache.KeyFromStrings("reply", p)
	if v, ok := cache.Default().Get(key); ok {
		return v, nil
	}
	reply, err := engine.Complete(ctx, p, replyMaxTokens, replyTemperature)
	if err != nil {
		return "", err
	}
	cache.Default().Set(key, reply, time.Duration(config.ReplyCacheTTLSeconds)*time.Second)
	return reply, nil
}
