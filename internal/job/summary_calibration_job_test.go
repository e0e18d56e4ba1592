package job

import (
	"Paddock/internal/model"
	"Paddock/internal/repository"
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubConvRepo struct {
	gotConvID  string
	gotSeq     uint64
	gotPreview string
	gotAt      time.Time
	updates    int
}

func (s *stubConvRepo) GetOrCreate(ctx context.Context, clientID string, vehicleID *string) (*model.Conversation, bool, error) {
	return nil, false, nil
}
func (s *stubConvRepo) Get(ctx context.Context, convID string) (*model.Conversation, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubConvRepo) ListActive(ctx context.Context) ([]*model.Conversation, error) {
	return nil, nil
}
func (s *stubConvRepo) ListByClient(ctx context.Context, clientID string) ([]*model.Conversation, error) {
	return nil, nil
}
func (s *stubConvRepo) Archive(ctx context.Context, convID string) error { return nil }
func (s *stubConvRepo) UpdateSummary(ctx context.Context, convID string, maxSeq uint64, preview string, senderType string, lastMessageAt time.Time) error {
	s.gotConvID = convID
	s.gotSeq = maxSeq
	s.gotPreview = preview
	s.gotAt = lastMessageAt
	s.updates++
	return nil
}

type stubMsgRepo struct {
	latest    *model.Message
	latestErr error
}

func (s *stubMsgRepo) Append(ctx context.Context, convID, senderID, senderType, content string) (*model.Message, error) {
	return nil, nil
}
func (s *stubMsgRepo) List(ctx context.Context, convID string) ([]*model.Message, error) {
	return nil, nil
}
func (s *stubMsgRepo) Latest(ctx context.Context, convID string) (*model.Message, error) {
	return s.latest, s.latestErr
}
func (s *stubMsgRepo) MarkRead(ctx context.Context, convID, viewerRole string, readAt time.Time) (int64, error) {
	return 0, nil
}
func (s *stubMsgRepo) UnreadCount(ctx context.Context, convID, viewerRole string) (int64, error) {
	return 0, nil
}
func (s *stubMsgRepo) UnreadCounts(ctx context.Context, convIDs []string, viewerRole string) (map[string]int64, error) {
	return nil, nil
}
func (s *stubMsgRepo) TotalUnread(ctx context.Context, viewerRole string) (int64, error) {
	return 0, nil
}

func TestCalibrateRepairsDriftWithClippedPreview(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	long := strings.Repeat("好", 300)

	convRepo := &stubConvRepo{}
	msgRepo := &stubMsgRepo{latest: &model.Message{
		ID:             "m-5",
		ConversationID: "c-1",
		SenderType:     model.RoleClient,
		Content:        long,
		Seq:            5,
		CreatedAt:      now,
	}}
	j := NewSummaryCalibrationJob(convRepo, msgRepo)

	conv := &model.Conversation{ID: "c-1", MaxMsgSeq: 3, LastMessageAt: now.Add(-time.Hour)}
	require.True(t, j.calibrate(context.Background(), conv))

	assert.Equal(t, "c-1", convRepo.gotConvID)
	assert.Equal(t, uint64(5), convRepo.gotSeq)
	assert.Equal(t, now, convRepo.gotAt)

	// 预览写回必须与发送路径同样截断，否则超长消息会让校准永远失败
	assert.Equal(t, repository.Preview(long), convRepo.gotPreview)
	assert.LessOrEqual(t, utf8.RuneCountInString(convRepo.gotPreview), 120)
}

func TestCalibrateSkipsConsistentConversation(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	convRepo := &stubConvRepo{}
	msgRepo := &stubMsgRepo{latest: &model.Message{
		ID:             "m-3",
		ConversationID: "c-1",
		Content:        "fine",
		Seq:            3,
		CreatedAt:      now,
	}}
	j := NewSummaryCalibrationJob(convRepo, msgRepo)

	conv := &model.Conversation{ID: "c-1", MaxMsgSeq: 3, LastMessageAt: now}
	assert.False(t, j.calibrate(context.Background(), conv))
	assert.Zero(t, convRepo.updates)
}

func TestCalibrateSkipsEmptyConversation(t *testing.T) {
	convRepo := &stubConvRepo{}
	msgRepo := &stubMsgRepo{latestErr: gorm.ErrRecordNotFound}
	j := NewSummaryCalibrationJob(convRepo, msgRepo)

	conv := &model.Conversation{ID: "c-1", MaxMsgSeq: 0}
	assert.False(t, j.calibrate(context.Background(), conv))
	assert.Zero(t, convRepo.updates)
}
