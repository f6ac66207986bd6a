package alerting

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/terrizoaguimor/kore-shield/pkg/domain/alert"
)

// Emitter appends operator-facing security events. Delivery is
// best-effort: a failed append is logged and swallowed, never surfaced to
// the request path.
type Emitter interface {
	Emit(ctx context.Context, a alert.Alert)
}

type emitter struct {
	repo   alert.Repository
	logger *logrus.Logger
}

func NewEmitter(repo alert.Repository, logger *logrus.Logger) Emitter {
	return &emitter{
		repo:   repo,
		logger: logger,
	}
}

func (e *emitter) Emit(ctx context.Context, a alert.Alert) {
	if err := e.repo.Create(ctx, &a); err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"alert_type": string(a.Type),
			"severity":   string(a.Severity),
		}).Error("failed to persist security alert")
	}
}
