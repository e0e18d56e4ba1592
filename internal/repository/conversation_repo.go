package repository

import (
	"Paddock/internal/model"
	"context"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepo interface {
	// GetOrCreate 返回客户当前的活跃会话，不存在则创建。
	// 并发创建由 active_key 唯一索引裁决，落败方回读胜出方的记录。
	GetOrCreate(ctx context.Context, clientID string, vehicleID *string) (*model.Conversation, bool, error)
	Get(ctx context.Context, convID string) (*model.Conversation, error)

	// ListActive 运营端视图：全部未归档会话，按最后消息时间倒序
	ListActive(ctx context.Context) ([]*model.Conversation, error)
	// ListByClient 客户视图：该客户的会话
	ListByClient(ctx context.Context, clientID string) ([]*model.Conversation, error)

	Archive(ctx context.Context, convID string) error
	UpdateSummary(ctx context.Context, convID string, maxSeq uint64, preview string, senderType string, lastMessageAt time.Time) error
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

func (s *conversationRepoImpl) GetOrCreate(ctx context.Context, clientID string, vehicleID *string) (*model.Conversation, bool, error) {
	conv, err := s.findActive(ctx, clientID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	now := time.Now()
	key := clientID
	fresh := &model.Conversation{
		ID:            uuid.NewString(),
		ClientID:      clientID,
		VehicleID:     vehicleID,
		ActiveKey:     &key,
		CreatedAt:     now,
		LastMessageAt: now,
	}

	if err = s.db.WithContext(ctx).Create(fresh).Error; err != nil {
		// 创建竞争落败：回读胜出方
		if isDuplicateKey(err) {
			winner, ferr := s.findActive(ctx, clientID)
			if ferr != nil {
				return nil, false, ferr
			}
			return winner, false, nil
		}
		return nil, false, err
	}
	return fresh, true, nil
}

func (s *conversationRepoImpl) Get(ctx context.Context, convID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).First(&conv, "id = ?", convID).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (s *conversationRepoImpl) ListActive(ctx context.Context) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := s.db.WithContext(ctx).
		Where("is_archived = ?", false).
		Order("last_message_at DESC").
		Find(&convs).Error
	return convs, err
}

func (s *conversationRepoImpl) ListByClient(ctx context.Context, clientID string) ([]*model.Conversation, error) {
	var convs []*model.Conversation
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND is_archived = ?", clientID, false).
		Order("last_message_at DESC").
		Find(&convs).Error
	return convs, err
}

// Archive 置归档标记并释放唯一键，客户下一条消息会开启新会话
func (s *conversationRepoImpl) Archive(ctx context.Context, convID string) error {
	res := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", convID).
		Updates(map[string]interface{}{
			"is_archived": true,
			"active_key":  nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *conversationRepoImpl) UpdateSummary(ctx context.Context, convID string, maxSeq uint64, preview string, senderType string, lastMessageAt time.Time) error {
	return s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", convID).
		Updates(map[string]interface{}{
			"max_msg_seq":      maxSeq,
			"last_msg_preview": preview,
			"last_sender_type": senderType,
			"last_message_at":  lastMessageAt,
		}).Error
}

func (s *conversationRepoImpl) findActive(ctx context.Context, clientID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).
		Where("active_key = ?", clientID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
