package scheduler

import (
	"context"

	"github.com/Dxtobi/xplus/pkg/models"
)

// Scheduler defines the interface for a component that defers gateway events to the settlement worker.
type Scheduler interface {
	// ScheduleEvent enqueues a verified gateway event for asynchronous settlement.
	ScheduleEvent(ctx context.Context, event *models.GatewayEvent) error
}
