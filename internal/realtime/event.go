package realtime

import (
	"Paddock/internal/api/dto"
	"context"
	"time"
)

const (
	EventMessage     = "message"
	EventReadReceipt = "read_receipt"
)

// Event 实时频道上的推送事件。频道只做尽力而为的通知，
// 消息与已读状态的事实来源始终是存储层。
type Event struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Message        *dto.MessageDTO `json:"message,omitempty"`
	ViewerRole     string          `json:"viewer_role,omitempty"`
	ReadAt         *time.Time      `json:"read_at,omitempty"`
}

// Channel 实时推送通道抽象。单会话内 FIFO，跨会话不保证顺序，
// 投递语义为 at-least-once。
type Channel interface {
	Publish(ctx context.Context, ev *Event) error
	// SubscribeConversation 订阅单个会话 (客户端视图)
	SubscribeConversation(ctx context.Context, convID string) (*Subscription, error)
	// SubscribeOperator 订阅运营端聚合频道 (全部会话)
	SubscribeOperator(ctx context.Context) (*Subscription, error)
}
