package notifier

import (
	"context"
	"fmt"

	"github.com/platformbuilds/vigil-core/internal/metrics"
	"github.com/platformbuilds/vigil-core/pkg/logger"
)

// Multi fans a notification out to every configured sink. Sink failures
// are independent; the returned error reports how many sinks failed.
type Multi struct {
	sinks  map[string]Notifier
	logger logger.Logger
}

func NewMulti(log logger.Logger, sinks map[string]Notifier) *Multi {
	return &Multi{sinks: sinks, logger: log}
}

func (m *Multi) Notify(ctx context.Context, p Payload) error {
	failed := 0
	for name, sink := range m.sinks {
		if err := sink.Notify(ctx, p); err != nil {
			m.logger.Error("Notification sink failed", "sink", name, "error", err)
			metrics.NotificationsSent.WithLabelValues(name, "false").Inc()
			failed++
			continue
		}
		metrics.NotificationsSent.WithLabelValues(name, "true").Inc()
	}
	if failed > 0 {
		return fmt.Errorf("notification partially failed: %d/%d sinks failed", failed, len(m.sinks))
	}
	return nil
}
