package repository

import (
	"Paddock/internal/model"
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAppendToArchived 目标会话已归档，不再接受追加
var ErrAppendToArchived = errors.New("append to archived conversation")

const previewRunes = 120

type MessageRepo interface {
	// Append 在一个事务内完成定序与落库：锁定会话行分配 Seq、写入消息、
	// 刷新会话摘要。调用方不参与排序，实时通知必须在提交之后发起。
	Append(ctx context.Context, convID, senderID, senderType, content string) (*model.Message, error)
	// List 按 (created_at, seq) 升序返回整个会话
	List(ctx context.Context, convID string) ([]*model.Message, error)
	// Latest 会话中最新一条消息
	Latest(ctx context.Context, convID string) (*model.Message, error)

	// MarkRead 将对手方发出的未读消息批量置已读。单调且幂等。
	MarkRead(ctx context.Context, convID, viewerRole string, readAt time.Time) (int64, error)

	UnreadCount(ctx context.Context, convID, viewerRole string) (int64, error)
	UnreadCounts(ctx context.Context, convIDs []string, viewerRole string) (map[string]int64, error)
	// TotalUnread 运营端聚合未读数 (未归档会话)
	TotalUnread(ctx context.Context, viewerRole string) (int64, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

func (s *messageRepoImpl) Append(ctx context.Context, convID, senderID, senderType, content string) (*model.Message, error) {
	var msg *model.Message

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv model.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&conv, "id = ?", convID).Error; err != nil {
			return err
		}
		if conv.IsArchived {
			return ErrAppendToArchived
		}

		now := time.Now()
		msg = &model.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			SenderID:       senderID,
			SenderType:     senderType,
			Content:        content,
			Seq:            conv.MaxMsgSeq + 1,
			CreatedAt:      now,
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Model(&model.Conversation{}).Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"max_msg_seq":      msg.Seq,
				"last_msg_preview": Preview(content),
				"last_sender_type": senderType,
				"last_message_at":  now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageRepoImpl) List(ctx context.Context, convID string) ([]*model.Message, error) {
	var msgs []*model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at ASC, seq ASC").
		Find(&msgs).Error
	return msgs, err
}

func (s *messageRepoImpl) Latest(ctx context.Context, convID string) (*model.Message, error) {
	var msg model.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", convID).
		Order("created_at DESC, seq DESC").
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *messageRepoImpl) MarkRead(ctx context.Context, convID, viewerRole string, readAt time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_type <> ? AND is_read = ?", convID, viewerRole, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": readAt,
		})
	return res.RowsAffected, res.Error
}

func (s *messageRepoImpl) UnreadCount(ctx context.Context, convID, viewerRole string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_type <> ? AND is_read = ?", convID, viewerRole, false).
		Count(&count).Error
	return count, err
}

func (s *messageRepoImpl) UnreadCounts(ctx context.Context, convIDs []string, viewerRole string) (map[string]int64, error) {
	counts := make(map[string]int64, len(convIDs))
	if len(convIDs) == 0 {
		return counts, nil
	}

	type row struct {
		ConversationID string
		Cnt            int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Select("conversation_id, COUNT(*) AS cnt").
		Where("conversation_id IN ? AND sender_type <> ? AND is_read = ?", convIDs, viewerRole, false).
		Group("conversation_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		counts[r.ConversationID] = r.Cnt
	}
	return counts, nil
}

func (s *messageRepoImpl) TotalUnread(ctx context.Context, viewerRole string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Table("messages m").
		Joins("JOIN conversations c ON m.conversation_id = c.id").
		Where("c.is_archived = ? AND m.sender_type <> ? AND m.is_read = ?", false, viewerRole, false).
		Count(&total).Error
	return total, err
}

// Preview 摘要预览截断，所有写入 last_msg_preview 的路径都必须经过这里
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= previewRunes {
		return content
	}
	runes := []rune(content)
	return string(runes[:previewRunes])
}
