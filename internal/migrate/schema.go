package migrate

import (
	"context"
	"database/sql"
	"rtw-settlements/internal/logger"
)

// 首次运行自动创建区域、扫描批次与聚落表
// 约束：只使用 IF NOT EXISTS，可重复执行
var statements = []string{
	`CREATE TABLE IF NOT EXISTS _rtw_regions (
            map_tag TEXT NOT NULL,
            province TEXT NOT NULL,
            legion TEXT NOT NULL DEFAULT '',
            settlement TEXT NOT NULL,
            faction TEXT NOT NULL,
            rebel TEXT NOT NULL,
            r INT NOT NULL,
            g INT NOT NULL,
            b INT NOT NULL,
            resources TEXT[] NOT NULL DEFAULT '{}',
            triumph INT NOT NULL,
            farm INT NOT NULL,
            religions JSONB NOT NULL DEFAULT '{}',
            updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
            PRIMARY KEY (map_tag, r, g, b)
        )`,
	`CREATE INDEX IF NOT EXISTS idx_rtw_regions_settlement ON _rtw_regions(map_tag, settlement)`,
	`CREATE TABLE IF NOT EXISTS _rtw_scan_runs (
            id BIGSERIAL PRIMARY KEY,
            map_tag TEXT NOT NULL,
            mode TEXT NOT NULL,
            settlements INT NOT NULL,
            invalid INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        )`,
	`CREATE INDEX IF NOT EXISTS idx_rtw_runs_tag ON _rtw_scan_runs(map_tag, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS _rtw_settlements (
            id BIGSERIAL PRIMARY KEY,
            run_id BIGINT NOT NULL REFERENCES _rtw_scan_runs(id) ON DELETE CASCADE,
            map_tag TEXT NOT NULL,
            name TEXT NOT NULL DEFAULT '',
            x INT NOT NULL,
            y INT NOT NULL,
            pixel_y INT NOT NULL,
            r INT NOT NULL,
            g INT NOT NULL,
            b INT NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_rtw_settlements_run ON _rtw_settlements(run_id, id)`,
	`CREATE INDEX IF NOT EXISTS idx_rtw_settlements_name ON _rtw_settlements(map_tag, name)`,
	`CREATE TABLE IF NOT EXISTS _rtw_invalid_markers (
            run_id BIGINT NOT NULL REFERENCES _rtw_scan_runs(id) ON DELETE CASCADE,
            x INT NOT NULL,
            y INT NOT NULL
        )`,
}

// EnsureSchema 依次执行建表语句，任一失败立即返回
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, s := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done", "statements", len(statements))
	return nil
}
