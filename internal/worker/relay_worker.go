package worker

import (
	"github.com/spec-kit/smartcity-api/internal/service"
)

// StartEventRelay registers the relay's event handlers.
func StartEventRelay(relay *service.EventRelay) {
	if relay == nil {
		return
	}
	relay.RegisterHandlers()
}
