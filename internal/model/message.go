package model

import "time"

// Message 消息明细，除已读状态外创建后不可变
type Message struct {
	ID             string `gorm:"primaryKey;type:char(36)" json:"id"`
	ConversationID string `gorm:"type:char(36);not null;uniqueIndex:idx_conv_seq;index:idx_conv_unread,priority:1" json:"conversationId"`
	SenderID       string `gorm:"type:char(36);not null" json:"senderId"`
	SenderType     string `gorm:"type:varchar(16);not null;index:idx_conv_unread,priority:2" json:"senderType"`
	Content        string `gorm:"type:text;not null" json:"content"`

	// Seq 会话内严格递增序号，落库时由存储层分配，用作同毫秒消息的排序决胜
	Seq uint64 `gorm:"not null;uniqueIndex:idx_conv_seq" json:"seq"`

	IsRead    bool       `gorm:"not null;default:false;index:idx_conv_unread,priority:3" json:"isRead"`
	ReadAt    *time.Time `json:"readAt"`
	CreatedAt time.Time  `gorm:"index" json:"createdAt"`
}

func (Message) TableName() string { return "messages" }
