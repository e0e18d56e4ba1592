package dto

import "time"

// SendMessageReq 发送消息请求体。ConversationID 为空时表示懒创建：
// 客户端直接发首条消息，管家端需携带 ClientID 指定目标客户。
type SendMessageReq struct {
	ConversationID string  `json:"conversation_id"`
	ClientID       string  `json:"client_id"`
	VehicleID      *string `json:"vehicle_id"`
	Content        string  `json:"content" binding:"required"`
}

// MessageDTO 消息明细响应
type MessageDTO struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	SenderType     string     `json:"sender_type"`
	Content        string     `json:"content"`
	Seq            uint64     `json:"seq"`
	IsRead         bool       `json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ConversationSummaryDTO 会话列表项响应，未读数实时派生，预览取自最新一条消息
type ConversationSummaryDTO struct {
	ID             string     `json:"id"`
	ClientID       string     `json:"client_id"`
	ClientName     string     `json:"client_name,omitempty"`
	ClientEmail    string     `json:"client_email,omitempty"`
	VehicleID      *string    `json:"vehicle_id,omitempty"`
	VehicleLabel   string     `json:"vehicle_label,omitempty"`
	Subject        *string    `json:"subject,omitempty"`
	IsArchived     bool       `json:"is_archived"`
	LastMsgPreview string     `json:"last_msg_preview"`
	LastSenderType string     `json:"last_sender_type"`
	UnreadCount    int64      `json:"unread_count"`
	CreatedAt      time.Time  `json:"created_at"`
	LastMessageAt  time.Time  `json:"last_message_at"`
}

// MarkReadReq 标记已读请求
type MarkReadReq struct {
	ConversationID string `json:"conversation_id" binding:"required"`
}

// UnreadTotalDTO 运营端聚合未读数
type UnreadTotalDTO struct {
	Total int64 `json:"total"`
}

// StreamFrame WebSocket 下行帧
type StreamFrame struct {
	Type           string        `json:"type"` // history / message / read_receipt
	ConversationID string        `json:"conversation_id,omitempty"`
	Message        *MessageDTO   `json:"message,omitempty"`
	Messages       []*MessageDTO `json:"messages,omitempty"`
	ViewerRole     string        `json:"viewer_role,omitempty"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
}
