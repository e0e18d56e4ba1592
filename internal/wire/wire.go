package wire

import (
	"Paddock/internal/api"
	"Paddock/internal/api/config"
	"Paddock/internal/api/handler"
	"Paddock/internal/directory"
	"Paddock/internal/job"
	"Paddock/internal/pkg/cron"
	"Paddock/internal/pkg/redis"
	"Paddock/internal/realtime"
	"Paddock/internal/repository"
	"Paddock/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router    *gin.Engine
	DB        *gorm.DB
	CronMgr   *cron.Manager
	Messaging service.MessagingService
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	convRepo := repository.NewConversationRepo(db)
	msgRepo := repository.NewMessageRepo(db)

	channel := realtime.NewRedisChannel(redis.GetRdbClient())
	profiles := directory.NewProfileDirectory(cfg.Directory)
	vehicles := directory.NewVehicleCatalog(cfg.Directory)

	messagingService := service.NewMessagingService(convRepo, msgRepo, channel, profiles, vehicles)

	handlers := &api.HandlersGroup{
		ConversationHandler: handler.NewConversationHandler(messagingService),
		WsHandler:           handler.NewWsHandler(messagingService, channel),
	}

	router := api.SetupRouter(handlers)

	calibrationJob := job.NewSummaryCalibrationJob(convRepo, msgRepo)
	cronMgr := cron.NewCronManager(cfg.Calibration.Schedule, calibrationJob)

	return &ApplicationContainer{
		Router:    router,
		DB:        db,
		CronMgr:   cronMgr,
		Messaging: messagingService,
	}, nil
}
