package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"KaziAI/models"
)

func openTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	// busy timeout keeps concurrent writers waiting instead of erroring
	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}, &models.MessageVersion{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db), db
}

// seedTurn creates a user, a conversation and one user+assistant exchange.
func seedTurn(t *testing.T, st *Store, answer string) (*models.Conversation, *models.Message, *models.Message) {
	t.Helper()
	user, err := st.GetOrCreateUser(1)
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	conv, err := st.CreateConversation(user.ID)
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	userMsg, err := st.AppendMessage(conv.ID, models.SenderUser, "Can we go on strike?")
	if err != nil {
		t.Fatalf("user message: %v", err)
	}
	botMsg, err := st.AppendMessage(conv.ID, models.SenderAssistant, answer)
	if err != nil {
		t.Fatalf("assistant message: %v", err)
	}
	return conv, userMsg, botMsg
}

func TestRegenerateKeepsVersionLedger(t *testing.T) {
	st, _ := openTestStore(t)
	_, _, botMsg := seedTurn(t, st, "answer-0")

	const n = 3
	for i := 1; i <= n; i++ {
		reply := fmt.Sprintf("answer-%d", i)
		msg, err := st.Regenerate(botMsg.ID, func(question string) (string, error) {
			if question != "Can we go on strike?" {
				t.Fatalf("regenerate used wrong user turn: %q", question)
			}
			return reply, nil
		})
		if err != nil {
			t.Fatalf("regenerate %d: %v", i, err)
		}
		if msg.Content != reply {
			t.Fatalf("content after regenerate %d = %q, want %q", i, msg.Content, reply)
		}
		if len(msg.Versions) != i {
			t.Fatalf("after %d regenerations got %d versions", i, len(msg.Versions))
		}
		// newest-first: versions[0] is what the message said just before
		for j, v := range msg.Versions {
			want := fmt.Sprintf("answer-%d", i-1-j)
			if v.Content != want {
				t.Fatalf("version[%d] = %q, want %q", j, v.Content, want)
			}
		}
	}
}

func TestRegenerateUserMessageFailsWithoutMutation(t *testing.T) {
	st, db := openTestStore(t)
	_, userMsg, _ := seedTurn(t, st, "answer-0")

	if _, err := st.Regenerate(userMsg.ID, func(string) (string, error) {
		t.Fatal("generate must not run for a user message")
		return "", nil
	}); !errors.Is(err, ErrNotAssistant) {
		t.Fatalf("expected ErrNotAssistant, got %v", err)
	}

	var reloaded models.Message
	if err := db.First(&reloaded, userMsg.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.Content != userMsg.Content {
		t.Fatalf("user message mutated: %q", reloaded.Content)
	}
	var versions int64
	db.Model(&models.MessageVersion{}).Count(&versions)
	if versions != 0 {
		t.Fatalf("expected no versions, found %d", versions)
	}
}

func TestRegenerateMissingMessage(t *testing.T) {
	st, _ := openTestStore(t)
	if _, err := st.Regenerate(12345, func(string) (string, error) { return "x", nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegenerateWithoutPrecedingUserTurn(t *testing.T) {
	st, _ := openTestStore(t)
	user, _ := st.GetOrCreateUser(1)
	conv, _ := st.CreateConversation(user.ID)
	orphan, err := st.AppendMessage(conv.ID, models.SenderAssistant, "unprompted")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.Regenerate(orphan.ID, func(string) (string, error) { return "x", nil }); !errors.Is(err, ErrNoUserTurn) {
		t.Fatalf("expected ErrNoUserTurn, got %v", err)
	}
}

func TestRegenerateGenerationFailureRollsBack(t *testing.T) {
	st, db := openTestStore(t)
	_, _, botMsg := seedTurn(t, st, "answer-0")

	boom := errors.New("model fell over")
	if _, err := st.Regenerate(botMsg.ID, func(string) (string, error) { return "", boom }); !errors.Is(err, boom) {
		t.Fatalf("expected generation error, got %v", err)
	}

	var versions int64
	db.Model(&models.MessageVersion{}).Where("message_id = ?", botMsg.ID).Count(&versions)
	if versions != 0 {
		t.Fatalf("snapshot leaked on failed regeneration: %d versions", versions)
	}
	var reloaded models.Message
	if err := db.First(&reloaded, botMsg.ID).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.Content != "answer-0" {
		t.Fatalf("content mutated on failed regeneration: %q", reloaded.Content)
	}
}

func TestDeleteConversationCascades(t *testing.T) {
	st, db := openTestStore(t)
	conv, _, botMsg := seedTurn(t, st, "answer-0")
	if _, err := st.Regenerate(botMsg.ID, func(string) (string, error) { return "answer-1", nil }); err != nil {
		t.Fatal(err)
	}

	// an unrelated conversation that must survive
	if _, err := st.GetOrCreateUser(2); err != nil {
		t.Fatal(err)
	}
	other, _ := st.CreateConversation(2)
	if _, err := st.AppendMessage(other.ID, models.SenderUser, "unrelated"); err != nil {
		t.Fatal(err)
	}

	if err := st.DeleteConversation(conv.ID, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var messages, versions, survivors int64
	db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&messages)
	db.Model(&models.MessageVersion{}).Count(&versions)
	db.Model(&models.Message{}).Where("conversation_id = ?", other.ID).Count(&survivors)
	if messages != 0 || versions != 0 {
		t.Fatalf("orphaned rows after delete: %d messages, %d versions", messages, versions)
	}
	if survivors != 1 {
		t.Fatalf("unrelated conversation lost messages: %d", survivors)
	}
}

func TestDeleteConversationScopedToOwner(t *testing.T) {
	st, _ := openTestStore(t)
	conv, _, _ := seedTurn(t, st, "answer-0")
	if err := st.DeleteConversation(conv.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestGetConversationScopedToOwner(t *testing.T) {
	st, _ := openTestStore(t)
	conv, _, _ := seedTurn(t, st, "answer-0")

	if _, err := st.GetConversation(conv.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign owner must see NotFound, got %v", err)
	}
	got, err := st.GetConversation(conv.ID, 1)
	if err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	if len(got.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Messages))
	}
	if got.Messages[0].Sender != models.SenderUser || got.Messages[1].Sender != models.SenderAssistant {
		t.Fatalf("messages out of creation order: %s, %s", got.Messages[0].Sender, got.Messages[1].Sender)
	}
}

func TestListConversationsOrdersMessages(t *testing.T) {
	st, _ := openTestStore(t)
	seedTurn(t, st, "answer-0")

	convs, err := st.ListConversations(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(convs))
	}
	msgs := convs[0].Messages
	if len(msgs) != 2 || msgs[0].Sender != models.SenderUser {
		t.Fatalf("unexpected message order: %+v", msgs)
	}
}

func TestGetOrCreateUserIsIdempotent(t *testing.T) {
	st, db := openTestStore(t)
	first, err := st.GetOrCreateUser(7)
	if err != nil {
		t.Fatal(err)
	}
	second, err := st.GetOrCreateUser(7)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids differ: %d vs %d", first.ID, second.ID)
	}
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 user, got %d", count)
	}
}

func TestConcurrentRegenerationsKeepEverySnapshot(t *testing.T) {
	st, db := openTestStore(t)
	_, _, botMsg := seedTurn(t, st, "answer-0")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = st.Regenerate(botMsg.ID, func(string) (string, error) {
				return fmt.Sprintf("concurrent-%d", i), nil
			})
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("regeneration %d: %v", i, err)
		}
	}

	var versions []models.MessageVersion
	if err := db.Where("message_id = ?", botMsg.ID).Order("seq ASC").Find(&versions).Error; err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 {
		t.Fatalf("expected 2 snapshots after 2 concurrent regenerations, got %d", len(versions))
	}
	if versions[0].Seq == versions[1].Seq {
		t.Fatalf("snapshots share seq %d", versions[0].Seq)
	}
	if versions[0].Content != "answer-0" {
		t.Fatalf("first snapshot = %q, want the original answer", versions[0].Content)
	}
	if versions[1].Content != "concurrent-0" && versions[1].Content != "concurrent-1" {
		t.Fatalf("second snapshot = %q, want one of the concurrent replies", versions[1].Content)
	}
}

func TestDeleteDuringRegenerationLeavesNoPartialState(t *testing.T) {
	st, db := openTestStore(t)
	conv, _, botMsg := seedTurn(t, st, "answer-0")

	start := make(chan struct{})
	var wg sync.WaitGroup
	var regenErr, delErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, regenErr = st.Regenerate(botMsg.ID, func(string) (string, error) {
			return "answer-1", nil
		})
	}()
	go func() {
		defer wg.Done()
		<-start
		delErr = st.DeleteConversation(conv.ID, 1)
	}()
	close(start)
	wg.Wait()

	if delErr != nil {
		t.Fatalf("delete: %v", delErr)
	}
	if regenErr != nil && !errors.Is(regenErr, ErrNotFound) {
		t.Fatalf("regenerate: %v", regenErr)
	}

	// whichever side committed first, nothing may survive the delete
	var messages, versions int64
	db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&messages)
	db.Model(&models.MessageVersion{}).Where("message_id = ?", botMsg.ID).Count(&versions)
	if messages != 0 || versions != 0 {
		t.Fatalf("orphaned rows after delete: %d messages, %d versions", messages, versions)
	}
}
