package handler

import (
	"Paddock/internal/api/dto"
	"Paddock/internal/model"
	"Paddock/internal/pkg/response"
	"Paddock/internal/pkg/security"
	"Paddock/internal/realtime"
	"Paddock/internal/reconcile"
	"Paddock/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeTimeout = 10 * time.Second

type WsHandler struct {
	messaging service.MessagingService
	channel   realtime.Channel
}

func NewWsHandler(messaging service.MessagingService, channel realtime.Channel) *WsHandler {
	return &WsHandler{messaging: messaging, channel: channel}
}

// Connect 建立推送连接。scope=conversation 订阅单个会话 (客户端视图)，
// scope=operator 订阅全部会话的聚合流 (运营端视图)。
// 订阅在本次连接的所有退出路径上都会被释放，断连期间的消息由下一次历史拉取找回。
func (s *WsHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, service.UnauthorizedError)
		return
	}
	claims, err := security.ValidateToken(token)
	if err != nil {
		log.Warn("WS auth failed", "err", err)
		response.Error(c, service.UnauthorizedError)
		return
	}

	scope := c.DefaultQuery("scope", "conversation")
	switch scope {
	case "conversation":
		s.serveConversation(c, claims)
	case "operator":
		s.serveOperator(c, claims)
	default:
		response.Error(c, service.ErrParamInvalid)
	}
}

func (s *WsHandler) serveConversation(c *gin.Context, claims *security.UserClaims) {
	convID := c.Query("conversation_id")
	ctx := c.Request.Context()

	history, sub, err := s.messaging.OpenConversation(ctx, convID, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer func() {
		_ = sub.Close()
	}()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	// 单会话有序视图：历史快照垫底，实时流去重合并
	timeline := reconcile.NewTimeline(func(ctx context.Context) ([]*dto.MessageDTO, error) {
		return s.messaging.History(ctx, convID, claims.UserID, claims.Role)
	})
	timeline.Prime(history)

	if err = writeFrame(conn, &dto.StreamFrame{
		Type:           "history",
		ConversationID: convID,
		Messages:       timeline.Snapshot(),
	}); err != nil {
		log.Error("WS history push failed", "conversation_id", convID, "err", err)
		return
	}

	log.Info("WS conversation stream opened", "user_id", claims.UserID, "conversation_id", convID)

	stopChan := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	bg := context.Background()
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				log.Info("WS conversation stream ended", "conversation_id", convID)
				return
			}
			if !s.handleConversationEvent(bg, conn, convID, timeline, ev) {
				return
			}
		case <-stopChan:
			log.Info("WS conversation stream closed by peer", "conversation_id", convID)
			return
		}
	}
}

// handleConversationEvent 返回 false 表示连接应当结束
func (s *WsHandler) handleConversationEvent(ctx context.Context, conn *websocket.Conn, convID string, timeline *reconcile.Timeline, ev *realtime.Event) bool {
	switch ev.Type {
	case realtime.EventMessage:
		if ev.Message == nil {
			return true
		}
		outcome, err := timeline.Apply(ctx, ev.Message)
		if err != nil {
			// 重拉失败留给下一个事件或客户端重连兜底
			log.Warn("WS timeline resync failed", "conversation_id", convID, "err", err)
			return true
		}

		switch outcome {
		case reconcile.Applied:
			if err = writeFrame(conn, &dto.StreamFrame{
				Type:           "message",
				ConversationID: convID,
				Message:        ev.Message,
			}); err != nil {
				log.Error("WS message push failed", "conversation_id", convID, "err", err)
				return false
			}
		case reconcile.Resynced:
			if err = writeFrame(conn, &dto.StreamFrame{
				Type:           "history",
				ConversationID: convID,
				Messages:       timeline.Snapshot(),
			}); err != nil {
				log.Error("WS resync push failed", "conversation_id", convID, "err", err)
				return false
			}
		case reconcile.Ignored:
			// 重复投递，丢弃
		}
	case realtime.EventReadReceipt:
		if err := writeFrame(conn, &dto.StreamFrame{
			Type:           "read_receipt",
			ConversationID: ev.ConversationID,
			ViewerRole:     ev.ViewerRole,
			ReadAt:         ev.ReadAt,
		}); err != nil {
			log.Error("WS receipt push failed", "conversation_id", convID, "err", err)
			return false
		}
	}
	return true
}

func (s *WsHandler) serveOperator(c *gin.Context, claims *security.UserClaims) {
	if claims.Role != model.RoleConcierge {
		response.Error(c, service.UnauthorizedError)
		return
	}

	sub, err := s.channel.SubscribeOperator(c.Request.Context())
	if err != nil {
		log.Warn("Subscribe operator channel failed", "err", err)
		response.Error(c, service.ErrChannelUnavailable)
		return
	}
	defer func() {
		_ = sub.Close()
	}()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	log.Info("WS operator stream opened", "user_id", claims.UserID)

	stopChan := make(chan struct{})
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(stopChan)
				return
			}
		}
	}()

	// 聚合流只做提醒，看板上的未读数始终通过接口从存储层重新派生
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			frame := &dto.StreamFrame{
				Type:           ev.Type,
				ConversationID: ev.ConversationID,
				Message:        ev.Message,
				ViewerRole:     ev.ViewerRole,
				ReadAt:         ev.ReadAt,
			}
			if err = writeFrame(conn, frame); err != nil {
				log.Error("WS operator push failed", "err", err)
				return
			}
		case <-stopChan:
			log.Info("WS operator stream closed by peer", "user_id", claims.UserID)
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, frame *dto.StreamFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}
