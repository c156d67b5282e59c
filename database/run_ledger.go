package database

import (
	"context"
	"database/sql"
	"fmt"
)

// RunLedger 记录每种周期任务在哪一天已经执行过
// 用于同一天内的重复触发保护
type RunLedger struct {
	db *sql.DB
}

// NewRunLedger 创建运行记录实例
// db: 已打开的数据库连接
func NewRunLedger(db *sql.DB) *RunLedger {
	return &RunLedger{db: db}
}

// Claim 写入 (kind, day) 记录，并返回当前调用者是否是当天第一个
// day 的格式为 2006-01-02，按处理器所在时区计算
func (l *RunLedger) Claim(ctx context.Context, kind, day string) (bool, error) {
	// 使用 INSERT OR IGNORE 保证并发触发时只有一个能成功
	query := `INSERT OR IGNORE INTO cycle_runs (kind, run_date) VALUES (?, ?)`

	result, err := l.db.ExecContext(ctx, query, kind, day)
	if err != nil {
		return false, fmt.Errorf("failed to claim %s run for %s: %w", kind, day, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return rowsAffected > 0, nil
}

// Release 删除记录，使该周期当天可以再次执行
func (l *RunLedger) Release(ctx context.Context, kind, day string) error {
	_, err := l.db.ExecContext(ctx, `DELETE FROM cycle_runs WHERE kind = ? AND run_date = ?`, kind, day)
	if err != nil {
		return fmt.Errorf("failed to release %s run for %s: %w", kind, day, err)
	}
	return nil
}
