package worker

import (
	"github.com/spec-kit/backoffice/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to the
// dispatcher. Handlers run in the publisher's goroutine after commit.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
