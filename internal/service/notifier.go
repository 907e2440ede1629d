package service

import (
	"context"

	"go.uber.org/zap"

	"pagetrail/internal/models"
)

// EventSink receives newly earned badges. Delivery is fire-and-forget.
type EventSink interface {
	BadgeEarned(ctx context.Context, badge models.BadgeDefinition)
}

// SinkFunc adapts a function to EventSink
type SinkFunc func(ctx context.Context, badge models.BadgeDefinition)

func (f SinkFunc) BadgeEarned(ctx context.Context, badge models.BadgeDefinition) {
	f(ctx, badge)
}

// MultiSink fans an event out to every sink in order
type MultiSink []EventSink

func (m MultiSink) BadgeEarned(ctx context.Context, badge models.BadgeDefinition) {
	for _, sink := range m {
		if sink != nil {
			sink.BadgeEarned(ctx, badge)
		}
	}
}

// LogSink logs each earned badge
type LogSink struct {
	Logger *zap.Logger
}

func (l LogSink) BadgeEarned(_ context.Context, badge models.BadgeDefinition) {
	l.Logger.Info("🏆 Badge unlocked",
		zap.String("badge", badge.ID),
		zap.String("name", badge.Name),
		zap.String("icon", badge.Icon),
	)
}
