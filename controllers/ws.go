package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"KaziAI/middleware"
	"KaziAI/models"
	"KaziAI/pkg/prompt"
	svc "KaziAI/pkg/services"
	"KaziAI/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS handled at HTTP level; allow WS here
		return true
	},
}

type wsStartPayload struct {
	Type           string `json:"type"`
	Message        string `json:"message"`
	ConversationID *uint  `json:"conversation_id"`
}

// ChatWS streams a chat turn over WebSocket. Persistence matches /chat; the
// reply is sent as delta chunks once the completion finishes.
//
// Client protocol (JSON messages):
//
//	-> {type: "start", message: string, conversation_id?: number}
//	<- {type: "user_saved", conversation_id: number}
//	<- {type: "delta", data: string}
//	<- {type: "done", ok: true}
//	<- {type: "error", error: string}
func ChatWS(db *gorm.DB, lib *prompt.Library, engine svc.Completer) gin.HandlerFunc {
	st := store.New(db)
	return func(c *gin.Context) {
		// authenticate via ?token=JWT
		tokenStr := strings.TrimSpace(c.Query("token"))
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token query"})
			return
		}
		uid, _, err := middleware.ParseToken(tokenStr)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var payload wsStartPayload
		if err := conn.ReadJSON(&payload); err != nil || payload.Type != "start" {
			writeWSError(conn, "expected start payload")
			return
		}
		message := strings.TrimSpace(payload.Message)
		if message == "" {
			writeWSError(conn, "message is required")
			return
		}

		user, err := st.GetOrCreateUser(uid)
		if err != nil {
			writeWSError(conn, "db error")
			return
		}

		var conv *models.Conversation
		if payload.ConversationID != nil {
			conv, err = st.GetConversation(*payload.ConversationID, user.ID)
			if errors.Is(err, store.ErrNotFound) {
				writeWSError(conn, "conversation not found")
				return
			}
		} else {
			conv, err = st.CreateConversation(user.ID)
		}
		if err != nil {
			writeWSError(conn, "db error")
			return
		}

		if _, err := st.AppendMessage(conv.ID, models.SenderUser, message); err != nil {
			writeWSError(conn, "failed to save message")
			return
		}
		_ = conn.WriteJSON(map[string]any{"type": "user_saved", "conversation_id": conv.ID})

		reply, err := engine.Complete(c.Request.Context(), lib.BuildPrompt(message), replyMaxTokens, replyTemperature)
		if err != nil {
			writeWSError(conn, "inference engine unavailable")
			return
		}

		if _, err := st.AppendMessage(conv.ID, models.SenderAssistant, reply); err != nil {
			writeWSError(conn, "failed to save reply")
			return
		}

		const chunk = 64
		for i := 0; i < len(reply); i += chunk {
			end := i + chunk
			if end > len(reply) {
				end = len(reply)
			}
			if err := conn.WriteJSON(map[string]any{"type": "delta", "data": reply[i:end]}); err != nil {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}

		_ = conn.WriteJSON(map[string]any{"type": "done", "ok": true})
	}
}

func writeWSError(conn *websocket.Conn, msg string) {
	_ = conn.WriteJSON(map[string]any{"type": "error", "error": msg})
}
