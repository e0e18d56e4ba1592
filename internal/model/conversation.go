package model

import "time"

const (
	RoleClient    = "client"
	RoleConcierge = "concierge"
)

// ValidRole 校验角色标识
func ValidRole(role string) bool {
	return role == RoleClient || role == RoleConcierge
}

// OppositeRole 返回对手方角色
func OppositeRole(role string) string {
	if role == RoleClient {
		return RoleConcierge
	}
	return RoleClient
}

// Conversation 会话主表，客户与管家之间的持久对话线程
type Conversation struct {
	ID        string  `gorm:"primaryKey;type:char(36)" json:"id"`
	ClientID  string  `gorm:"index;type:char(36);not null" json:"clientId"`
	VehicleID *string `gorm:"type:char(36)" json:"vehicleId"`
	Subject   *string `gorm:"type:varchar(255)" json:"subject"`

	// ActiveKey 活跃期间等于 ClientID，归档后置 NULL。
	// 唯一索引保证同一客户最多存在一个未归档会话，并发创建只会有一方成功。
	ActiveKey  *string `gorm:"uniqueIndex;type:char(36)" json:"-"`
	IsArchived bool    `gorm:"not null;default:false" json:"isArchived"`

	MaxMsgSeq      uint64    `gorm:"not null;default:0" json:"maxMsgSeq"`
	LastMsgPreview string    `gorm:"type:varchar(255)" json:"lastMsgPreview"`
	LastSenderType string    `gorm:"type:varchar(16)" json:"lastSenderType"`
	CreatedAt      time.Time `json:"createdAt"`
	LastMessageAt  time.Time `gorm:"index" json:"lastMessageAt"`
}

func (Conversation) TableName() string { return "conversations" }
