package service

import (
	"Paddock/internal/api/dto"
	"Paddock/internal/directory"
	"Paddock/internal/model"
	"Paddock/internal/realtime"
	"Paddock/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

// MessagingService 客户-管家消息核心的对外门面
type MessagingService interface {
	SendMessage(ctx context.Context, senderID, senderRole string, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	ListConversations(ctx context.Context, viewerID, viewerRole string) ([]*dto.ConversationSummaryDTO, error)
	History(ctx context.Context, convID, viewerID, viewerRole string) ([]*dto.MessageDTO, error)
	// OpenConversation 返回历史消息与实时订阅句柄。先订阅后拉历史，
	// 重叠交给订阅方的时间线去重；句柄由调用方负责在退出路径上释放。
	OpenConversation(ctx context.Context, convID, viewerID, viewerRole string) ([]*dto.MessageDTO, *realtime.Subscription, error)
	MarkRead(ctx context.Context, convID, viewerID, viewerRole string) error
	TotalUnread(ctx context.Context, viewerRole string) (int64, error)
	Archive(ctx context.Context, convID, viewerRole string) error
}

type messagingServiceImpl struct {
	convRepo repository.ConversationRepo
	msgRepo  repository.MessageRepo
	channel  realtime.Channel
	profiles directory.ProfileDirectory
	vehicles directory.VehicleCatalog
	pubQueue chan *realtime.Event
}

func NewMessagingService(
	convRepo repository.ConversationRepo,
	msgRepo repository.MessageRepo,
	channel realtime.Channel,
	profiles directory.ProfileDirectory,
	vehicles directory.VehicleCatalog,
) MessagingService {
	s := &messagingServiceImpl{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		channel:  channel,
		profiles: profiles,
		vehicles: vehicles,
		pubQueue: make(chan *realtime.Event, 256),
	}
	go s.publishLoop()
	return s
}

// SendMessage 发送消息。会话 ID 为空时懒创建：客户发首条消息即开启会话，
// 管家主动发起需指定目标客户。
func (s *messagingServiceImpl) SendMessage(ctx context.Context, senderID, senderRole string, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	if !model.ValidRole(senderRole) {
		return nil, ErrRoleInvalid
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentEmpty
	}

	convID := req.ConversationID
	if convID == "" {
		clientID := senderID
		if senderRole == model.RoleConcierge {
			clientID = req.ClientID
		}
		if clientID == "" {
			return nil, ErrTargetClientInvalid
		}

		conv, created, err := s.convRepo.GetOrCreate(ctx, clientID, req.VehicleID)
		if err != nil {
			return nil, err
		}
		if created {
			log.InfoContext(ctx, "Conversation created", "conversation_id", conv.ID, "client_id", clientID)
		}
		convID = conv.ID
	} else {
		conv, err := s.convRepo.Get(ctx, convID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrConversationNotFound
			}
			return nil, err
		}
		if err = s.authorize(conv, senderID, senderRole); err != nil {
			return nil, err
		}
	}

	msg, err := s.msgRepo.Append(ctx, convID, senderID, senderRole, content)
	if err != nil {
		if errors.Is(err, repository.ErrAppendToArchived) {
			return nil, ErrConversationArchived
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	d := s.toMessageDTO(msg)

	// 提交后经串行队列通知，推送失败不影响已落库的消息
	s.publish(&realtime.Event{
		Type:           realtime.EventMessage,
		ConversationID: d.ConversationID,
		Message:        d,
	})

	return d, nil
}

// ListConversations 会话列表：运营端为全部未归档会话，客户端为本人会话。
// 未读数从消息存储实时派生，客户身份与车辆上下文由目录服务装饰。
func (s *messagingServiceImpl) ListConversations(ctx context.Context, viewerID, viewerRole string) ([]*dto.ConversationSummaryDTO, error) {
	var (
		convs []*model.Conversation
		err   error
	)
	switch viewerRole {
	case model.RoleConcierge:
		convs, err = s.convRepo.ListActive(ctx)
	case model.RoleClient:
		convs, err = s.convRepo.ListByClient(ctx, viewerID)
	default:
		return nil, ErrRoleInvalid
	}
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(convs))
	for _, c := range convs {
		ids = append(ids, c.ID)
	}
	counts, err := s.msgRepo.UnreadCounts(ctx, ids, viewerRole)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ConversationSummaryDTO, 0, len(convs))
	for _, c := range convs {
		d := &dto.ConversationSummaryDTO{}
		if err = copier.Copy(d, c); err != nil {
			return nil, err
		}
		d.UnreadCount = counts[c.ID]
		s.decorate(ctx, d, viewerRole)
		res = append(res, d)
	}
	return res, nil
}

func (s *messagingServiceImpl) History(ctx context.Context, convID, viewerID, viewerRole string) ([]*dto.MessageDTO, error) {
	conv, err := s.getConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if err = s.authorize(conv, viewerID, viewerRole); err != nil {
		return nil, err
	}

	msgs, err := s.msgRepo.List(ctx, convID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, s.toMessageDTO(m))
	}
	return res, nil
}

func (s *messagingServiceImpl) OpenConversation(ctx context.Context, convID, viewerID, viewerRole string) ([]*dto.MessageDTO, *realtime.Subscription, error) {
	conv, err := s.getConversation(ctx, convID)
	if err != nil {
		return nil, nil, err
	}
	if err = s.authorize(conv, viewerID, viewerRole); err != nil {
		return nil, nil, err
	}

	sub, err := s.channel.SubscribeConversation(ctx, convID)
	if err != nil {
		log.WarnContext(ctx, "Subscribe conversation failed", "conversation_id", convID, "err", err)
		return nil, nil, ErrChannelUnavailable
	}

	history, err := s.History(ctx, convID, viewerID, viewerRole)
	if err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	// 打开即已读；失败不致命，下一次打开或显式标记会补上
	if err = s.MarkRead(ctx, convID, viewerID, viewerRole); err != nil {
		log.WarnContext(ctx, "Mark read on open failed", "conversation_id", convID, "err", err)
	}

	return history, sub, nil
}

// MarkRead 把对手方发来的未读消息置已读。幂等：没有新消息时为空操作。
func (s *messagingServiceImpl) MarkRead(ctx context.Context, convID, viewerID, viewerRole string) error {
	if !model.ValidRole(viewerRole) {
		return ErrRoleInvalid
	}
	conv, err := s.getConversation(ctx, convID)
	if err != nil {
		return err
	}
	if err = s.authorize(conv, viewerID, viewerRole); err != nil {
		return err
	}

	readAt := time.Now()
	rows, err := s.msgRepo.MarkRead(ctx, convID, viewerRole, readAt)
	if err != nil {
		return err
	}

	if rows > 0 {
		s.publish(&realtime.Event{
			Type:           realtime.EventReadReceipt,
			ConversationID: convID,
			ViewerRole:     viewerRole,
			ReadAt:         &readAt,
		})
	}
	return nil
}

func (s *messagingServiceImpl) TotalUnread(ctx context.Context, viewerRole string) (int64, error) {
	if !model.ValidRole(viewerRole) {
		return 0, ErrRoleInvalid
	}
	return s.msgRepo.TotalUnread(ctx, viewerRole)
}

// Archive 归档会话，仅运营端可操作；归档后客户的下一条消息开启新会话
func (s *messagingServiceImpl) Archive(ctx context.Context, convID, viewerRole string) error {
	if viewerRole != model.RoleConcierge {
		return UnauthorizedError
	}
	if err := s.convRepo.Archive(ctx, convID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

func (s *messagingServiceImpl) getConversation(ctx context.Context, convID string) (*model.Conversation, error) {
	if convID == "" {
		return nil, ErrParamInvalid
	}
	conv, err := s.convRepo.Get(ctx, convID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return conv, nil
}

// authorize 客户只能访问本人会话，管家可访问全部
func (s *messagingServiceImpl) authorize(conv *model.Conversation, viewerID, viewerRole string) error {
	switch viewerRole {
	case model.RoleConcierge:
		return nil
	case model.RoleClient:
		if conv.ClientID != viewerID {
			return ErrNotParticipant
		}
		return nil
	default:
		return ErrRoleInvalid
	}
}

func (s *messagingServiceImpl) decorate(ctx context.Context, d *dto.ConversationSummaryDTO, viewerRole string) {
	if viewerRole == model.RoleConcierge {
		if p, err := s.profiles.Resolve(ctx, d.ClientID); err != nil {
			log.WarnContext(ctx, "Resolve client profile failed", "client_id", d.ClientID, "err", err)
		} else {
			d.ClientName = p.FullName
			d.ClientEmail = p.Email
		}
	}

	if d.VehicleID != nil && *d.VehicleID != "" {
		if v, err := s.vehicles.Resolve(ctx, *d.VehicleID); err != nil {
			log.WarnContext(ctx, "Resolve vehicle failed", "vehicle_id", *d.VehicleID, "err", err)
		} else {
			d.VehicleLabel = v.Label()
		}
	}
}

// publish 提交后的尽力而为通知，发送路径绝不等待投递。
// 事件进入串行队列，保证同一会话的推送按落库顺序到达频道；
// 队列溢出时丢弃，丢失由订阅方的全量拉取兜底。
func (s *messagingServiceImpl) publish(ev *realtime.Event) {
	select {
	case s.pubQueue <- ev:
	default:
		log.Warn("Realtime publish queue full, event dropped", "type", ev.Type, "conversation_id", ev.ConversationID)
	}
}

func (s *messagingServiceImpl) publishLoop() {
	for ev := range s.pubQueue {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.channel.Publish(ctx, ev); err != nil {
			log.Warn("Failed to publish realtime event", "type", ev.Type, "conversation_id", ev.ConversationID, "err", err)
		}
		cancel()
	}
}

func (s *messagingServiceImpl) toMessageDTO(m *model.Message) *dto.MessageDTO {
	d := &dto.MessageDTO{}
	_ = copier.Copy(d, m)
	return d
}
