// Package cleanup は無効化済みセッションの自動削除ジョブを提供する。
// 無効化されたセッションは監査のため即座には削除せず、
// 保持期間（デフォルト90日）を超過したものを日次バッチで削除する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// SessionPruner は期限切れセッションの削除を抽象化するインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionPruner interface {
	DeleteInvalidatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した無効セッションの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
// 有効なセッション（valid = true）は保持期間に関わらず削除しない。
type CleanupJob struct {
	sessions      SessionPruner
	logger        *slog.Logger
	RetentionDays int // 無効化後の保持日数（デフォルト: 90）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(sessions SessionPruner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		sessions:      sessions,
		logger:        logger,
		RetentionDays: 90,
	}
}

// Run は無効化からRetentionDays日を超過したセッションを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	cutoff := time.Now().AddDate(0, 0, -j.RetentionDays)

	deletedCount, err := j.sessions.DeleteInvalidatedBefore(ctx, cutoff)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
