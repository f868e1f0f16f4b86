package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to complaint events.
// Handlers run inline on the publishing request goroutine.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
