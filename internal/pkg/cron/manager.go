package cron

import (
	"Paddock/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine         *cron.Cron
	schedule       string
	calibrationJob *job.SummaryCalibrationJob
}

func NewCronManager(schedule string, calibrationJob *job.SummaryCalibrationJob) *Manager {
	if schedule == "" {
		schedule = "@hourly"
	}
	return &Manager{
		engine:         cron.New(),
		schedule:       schedule,
		calibrationJob: calibrationJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.schedule, s.calibrationJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron engine started")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron engine stopped")
	s.engine.Stop()
}
