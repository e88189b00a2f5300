// Package cleanup は期限切れセッションの定期的な刈り取りを提供する。
// ログイン時の刈り取りだけではログインが稀な環境でコレクションが
// 肥大化し続けるため、ワーカーモードでの定期実行を併用する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPruner は期限切れセッションの削除インターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPruner interface {
	DeleteExpired(ctx context.Context) (int, error)
}

// Metrics は刈り取り結果の計測インターフェース。
type Metrics interface {
	RecordSessionsPruned(count int)
}

// Job は期限切れセッションの刈り取りジョブ。
type Job struct {
	sessions SessionPruner
	logger   *slog.Logger
	metrics  Metrics // nilの場合は計測しない
}

// NewJob はJobを生成する。metricsはnilでもよい。
func NewJob(sessions SessionPruner, logger *slog.Logger, metrics Metrics) *Job {
	return &Job{
		sessions: sessions,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run は期限切れセッションを1回刈り取る。
func (j *Job) Run(ctx context.Context) error {
	pruned, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsPruned(pruned)
	}

	if pruned > 0 {
		j.logger.Info("expired sessions pruned",
			slog.Int("count", pruned),
		)
	}
	return nil
}

// Start は指定間隔で刈り取りを繰り返す。ctxのキャンセルで停止する。
// 起動直後にも1回実行する。
func (j *Job) Start(ctx context.Context, interval time.Duration) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("session cleanup failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("session cleanup failed", slog.String("error", err.Error()))
			}
		}
	}
}
