package job

import (
	"Paddock/internal/model"
	"Paddock/internal/pkg/consts"
	"Paddock/internal/pkg/logger"
	"Paddock/internal/pkg/redis"
	"Paddock/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SummaryCalibrationJob 定期用消息日志重算会话摘要
// (max_msg_seq / last_message_at / 预览)，修复推送或进程中断造成的漂移。
// 摘要永远可以从持久化的消息状态重新派生。
type SummaryCalibrationJob struct {
	convRepo repository.ConversationRepo
	msgRepo  repository.MessageRepo
}

func NewSummaryCalibrationJob(convRepo repository.ConversationRepo, msgRepo repository.MessageRepo) *SummaryCalibrationJob {
	return &SummaryCalibrationJob{
		convRepo: convRepo,
		msgRepo:  msgRepo,
	}
}

func (s *SummaryCalibrationJob) Run() {
	traceID := "job-calibration-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	// 多实例部署时只允许一个实例执行
	locked, err := redis.TryLock(ctx, consts.CalibrationLockKey, traceID, 10*time.Minute, 1)
	if err != nil || !locked {
		return
	}
	defer redis.UnLock(ctx, consts.CalibrationLockKey, traceID)

	convs, err := s.convRepo.ListActive(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Calibration: list conversations failed", "err", err)
		return
	}

	repaired := 0
	for _, conv := range convs {
		if s.calibrate(ctx, conv) {
			repaired++
		}
	}

	log.InfoContext(ctx, "Calibration finished", "conversations", len(convs), "repaired", repaired)
}

func (s *SummaryCalibrationJob) calibrate(ctx context.Context, conv *model.Conversation) bool {
	latest, err := s.msgRepo.Latest(ctx, conv.ID)
	if err != nil {
		// 尚无消息的会话无需校准
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.WarnContext(ctx, "Calibration: fetch latest message failed", "conversation_id", conv.ID, "err", err)
		}
		return false
	}

	if conv.MaxMsgSeq == latest.Seq && conv.LastMessageAt.Equal(latest.CreatedAt) {
		return false
	}

	log.WarnContext(ctx, "Calibration: summary drift detected",
		"conversation_id", conv.ID,
		"summary_seq", conv.MaxMsgSeq, "actual_seq", latest.Seq)

	err = s.convRepo.UpdateSummary(ctx, conv.ID, latest.Seq, repository.Preview(latest.Content), latest.SenderType, latest.CreatedAt)
	if err != nil {
		log.ErrorContext(ctx, "Calibration: repair failed", "conversation_id", conv.ID, "err", err)
		return false
	}
	return true
}
