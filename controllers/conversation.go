package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"KaziAI/middleware"
	"KaziAI/pkg/store"
)

// History returns every conversation of the caller with messages in
// creation order.
func History(db *gorm.DB) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		convs, err := st.ListConversations(uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		data := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			messages := make([]gin.H, 0, len(conv.Messages))
			for _, m := range conv.Messages {
				messages = append(messages, gin.H{
					"sender":     m.Sender,
					"content":    m.Content,
					"created_at": m.CreatedAt.Format(time.RFC3339),
				})
			}
			data = append(data, gin.H{
				"conversation_id": conv.ID,
				"messages":        messages,
			})
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "conversations": data})
	}
}

// CreateConversation starts an empty thread for the caller.
func CreateConversation(db *gorm.DB) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		conv, err := st.CreateConversation(uid)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"conversation": gin.H{
				"conversation_id": conv.ID,
				"messages":        []gin.H{},
			},
		})
	}
}

// GetConversation returns one thread with full message and version detail.
func GetConversation(db *gorm.DB) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		cid, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}

		conv, err := st.GetConversation(uint(cid), uid)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}

		messages := make([]gin.H, 0, len(conv.Messages))
		for _, m := range conv.Messages {
			versions := make([]string, 0, len(m.Versions))
			for _, v := range m.Versions {
				versions = append(versions, v.Content)
			}
			messages = append(messages, gin.H{
				"id":         m.ID,
				"sender":     m.Sender,
				"content":    m.Content,
				"versions":   versions,
				"created_at": m.CreatedAt.Format(time.RFC3339),
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"conversation": gin.H{
				"conversation_id": conv.ID,
				"messages":        messages,
			},
		})
	}
}

// DeleteConversation removes a thread and everything under it.
func DeleteConversation(db *gorm.DB) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		uid := middleware.CurrentUserID(c)

		cid, err := strconv.ParseUint(c.Param("conversation_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}

		err = st.DeleteConversation(uint(cid), uid)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete conversation"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Conversation deleted successfully"})
	}
}
