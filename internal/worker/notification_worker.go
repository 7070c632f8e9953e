package worker

import (
	"github.com/HarshChauhan10/Queues/internal/service"
)

// StartNotificationWorker registers queue event relays.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
