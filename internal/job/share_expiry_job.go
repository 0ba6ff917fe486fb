package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type ShareExpirer interface {
	ExpireBefore(ctx context.Context, now int64) (int64, error)
}

// ShareExpiryJob marks pending and accepted shares past their deadline as expired.
type ShareExpiryJob struct {
	shares ShareExpirer
	now    func() time.Time
}

func NewShareExpiryJob(shares ShareExpirer) *ShareExpiryJob {
	return &ShareExpiryJob{shares: shares, now: time.Now}
}

func (j *ShareExpiryJob) Name() string {
	return "share_expiry"
}

func (j *ShareExpiryJob) Run(ctx context.Context) error {
	if j.shares == nil {
		return nil
	}
	count, err := j.shares.ExpireBefore(ctx, j.now().Unix())
	if err != nil {
		return err
	}
	if count > 0 {
		logutil.GetLogger(ctx).Info("shares expired", zap.Int64("count", count))
	}
	return nil
}
