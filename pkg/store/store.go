package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"KaziAI/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNotAssistant = errors.New("message is not an assistant reply")
	ErrNoUserTurn   = errors.New("no preceding user message")
)

// Store owns the user/conversation/message/version lifecycle on top of gorm.
// Conversations are always scoped by owner: a conversation belonging to a
// different user is indistinguishable from a missing one.
type Store struct {
	db *gorm.DB

	// regenerations serialize per process; the snapshot-then-overwrite
	// sequence must not interleave for the same message, and the call path
	// ends in a single shared model handle anyway.
	regenMu sync.Mutex
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetOrCreateUser keeps the legacy chat contract: the chat endpoint trusts a
// client-supplied numeric id and creates a placeholder account on first
// contact.
func (s *Store) GetOrCreateUser(id uint) (*models.User, error) {
	var user models.User
	err := s.db.First(&user, id).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user = models.User{
		ID:       id,
		Username: fmt.Sprintf("guest%d", id),
		Email:    fmt.Sprintf("guest%d@local", id),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateConversation(ownerID uint) (*models.Conversation, error) {
	conv := models.Conversation{UserID: ownerID}
	if err := s.db.Create(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) GetConversation(id, ownerID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.
		Preload("Messages", messageOrder).
		Preload("Messages.Versions", versionOrder).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *Store) ListConversations(ownerID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.
		Preload("Messages", messageOrder).
		Where("user_id = ?", ownerID).
		Order("id ASC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// AppendMessage adds a turn to the conversation; the creation timestamp is
// assigned at append time by the insert.
func (s *Store) AppendMessage(conversationID uint, sender, content string) (*models.Message, error) {
	msg := models.Message{
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteConversation removes the conversation and everything under it in one
// transaction: versions first, then messages, then the conversation row. A
// partial delete must never be observable.
func (s *Store) DeleteConversation(id, ownerID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		if err := tx.Where("id = ? AND user_id = ?", id, ownerID).First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		messageIDs := tx.Model(&models.Message{}).Select("id").Where("conversation_id = ?", conv.ID)
		if err := tx.Where("message_id IN (?)", messageIDs).Delete(&models.MessageVersion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Delete(&conv).Error
	})
}

// Regenerate replaces an assistant message's content with a fresh completion
// while preserving the old content as a version.
//
// The sequence inside the transaction:
//  1. load the target message, reject non-assistant targets
//  2. find the nearest preceding user turn in the same conversation
//  3. snapshot the current content as the next version
//  4. call generate with the user turn's content
//  5. overwrite the message content
//
// generate failing rolls the whole transaction back, so a snapshot is never
// recorded without its matching overwrite.
func (s *Store) Regenerate(messageID uint, generate func(question string) (string, error)) (*models.Message, error) {
	s.regenMu.Lock()
	defer s.regenMu.Unlock()

	var msg models.Message
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&msg, messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if msg.Sender != models.SenderAssistant {
			return ErrNotAssistant
		}

		var question models.Message
		err := tx.
			Where("conversation_id = ? AND sender = ? AND created_at < ?",
				msg.ConversationID, models.SenderUser, msg.CreatedAt).
			Order("created_at DESC, id DESC").
			First(&question).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoUserTurn
			}
			return err
		}

		var maxSeq sql.NullInt64
		if err := tx.Model(&models.MessageVersion{}).
			Where("message_id = ?", msg.ID).
			Select("MAX(seq)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}

		// snapshot what the message says right now, before the overwrite
		snapshot := models.MessageVersion{
			MessageID: msg.ID,
			Seq:       uint(maxSeq.Int64) + 1,
			Content:   msg.Content,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		reply, err := generate(question.Content)
		if err != nil {
			return err
		}

		msg.Content = reply
		return tx.Model(&models.Message{}).
			Where("id = ?", msg.ID).
			Update("content", reply).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("message_id = ?", msg.ID).Order("seq DESC").Find(&msg.Versions).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func messageOrder(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}

func versionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("seq DESC")
}
