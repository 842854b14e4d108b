// Package notify delivers alerts about new or changed submissions.
package notify

import (
	"context"

	"github.com/okian/commitwatch/internal/domain/submission"
	"github.com/okian/commitwatch/pkg/logger"
)

// Alert describes one changed registry slot.
type Alert struct {
	Block      uint64
	UID        int
	Hotkey     string
	Submission submission.Submission
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Log writes alerts to a logger. It is used when no webhook is configured.
type Log struct {
	log logger.Logger
}

// NewLog creates a notifier writing to log.
func NewLog(log logger.Logger) *Log {
	return &Log{log: log}
}

// Notify implements Notifier.
func (l *Log) Notify(ctx context.Context, a Alert) error {
	l.log.Info(ctx, "new miner submission",
		logger.String("contest", a.Submission.Contest.String()),
		logger.String("repository", a.Submission.Repository),
		logger.String("revision", a.Submission.Revision),
		logger.String("commit", a.Submission.CommitURL()),
		logger.Uint64("block", a.Block),
		logger.Int("uid", a.UID),
		logger.String("hotkey", a.Hotkey),
	)
	return nil
}
