package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mitra-ai/docchat/internal/session"
)

// SessionSweepJob drops chat sessions that have been idle longer than the
// configured TTL. It is only scheduled when session.ttl_hours is set.
type SessionSweepJob struct {
	store    *session.Store
	ttlHours int
}

func NewSessionSweepJob(store *session.Store, ttlHours int) *SessionSweepJob {
	return &SessionSweepJob{store: store, ttlHours: ttlHours}
}

func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

func (j *SessionSweepJob) Run(ctx context.Context) error {
	if j.store == nil || j.ttlHours <= 0 {
		return nil
	}
	removed := j.store.Sweep(time.Duration(j.ttlHours) * time.Hour)
	if removed > 0 {
		logutil.GetLogger(ctx).Info("idle sessions removed", zap.Int("count", removed))
	}
	return nil
}
