package ingest

import (
	"context"
	"database/sql"
	"rtw-settlements/internal/logger"
	"time"
)

// nextMondayAt：计算 now 之后下一次周一指定小时的时间点（不含当前已过时的当周）
// 约束：基于传入时区 loc 与整点 hour；仅前推至未来时间
func nextMondayAt(now time.Time, loc *time.Location, hour int) time.Time {
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() == time.Monday {
			t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
			if t.After(now) {
				return t
			}
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// RefreshRegions：拉取并导入一次区域描述
func RefreshRegions(ctx context.Context, db *sql.DB, src, tag string) (int, error) {
	recs, err := FetchRegions(ctx, src)
	if err != nil {
		return 0, err
	}
	return ImportRegions(ctx, db, tag, recs)
}

// StartWeekly：每周一 hour 点（loc 时区）在后台协程刷新区域描述
// 背景：模组更新后描述文件会变化，查询服务据此保持区域表最新；错误由日志记录，任务继续调度
// 约束：ctx 取消后退出；loc 为 nil 时使用 UTC
func StartWeekly(ctx context.Context, db *sql.DB, src, tag string, loc *time.Location, hour int) {
	l := logger.L()
	if loc == nil {
		loc = time.UTC
	}
	next := nextMondayAt(time.Now(), loc, hour)
	l.Info("ingest_scheduled", "next", next, "src", src, "map_tag", tag)
	go func() {
		for {
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			l.Info("ingest_start", "next", next)
			if n, err := RefreshRegions(ctx, db, src, tag); err != nil {
				l.Error("ingest_error", "err", err)
			} else {
				l.Info("ingest_done", "count", n)
			}
			next = next.AddDate(0, 0, 7)
		}
	}()
}
