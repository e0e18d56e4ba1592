package handler

import (
	"Paddock/internal/api/dto"
	"Paddock/internal/pkg/response"
	"Paddock/internal/service"

	"github.com/gin-gonic/gin"
)

type ConversationHandler struct {
	messaging service.MessagingService
}

func NewConversationHandler(messaging service.MessagingService) *ConversationHandler {
	return &ConversationHandler{messaging: messaging}
}

// List 会话列表 (含最新消息预览与未读数)
func (s *ConversationHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	res, err := s.messaging.ListConversations(c.Request.Context(), userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// History 按总序升序返回整个会话的消息
func (s *ConversationHandler) History(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")
	convID := c.Param("conversation_id")

	res, err := s.messaging.History(c.Request.Context(), convID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// Send 发送消息接口。失败原样返回错误，调用方保留草稿重试。
func (s *ConversationHandler) Send(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetString("user_id")
	role := c.GetString("role")

	res, err := s.messaging.SendMessage(c.Request.Context(), userID, role, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// MarkRead 标记已读接口，幂等
func (s *ConversationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")
	convID := c.Param("conversation_id")

	if err := s.messaging.MarkRead(c.Request.Context(), convID, userID, role); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// Archive 归档会话 (仅运营端)
func (s *ConversationHandler) Archive(c *gin.Context) {
	role := c.GetString("role")
	convID := c.Param("conversation_id")

	if err := s.messaging.Archive(c.Request.Context(), convID, role); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// UnreadTotal 运营端看板聚合未读数
func (s *ConversationHandler) UnreadTotal(c *gin.Context) {
	role := c.GetString("role")

	total, err := s.messaging.TotalUnread(c.Request.Context(), role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.UnreadTotalDTO{Total: total})
}
