package main

import (
	"context"
	"os"
	"rtw-settlements/internal/config"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/store"
	"rtw-settlements/internal/utils"
)

// 文档注释：扫描批次保留窗口
// 背景：按 map_tag 分组保留最近 RUNS_KEEP_N 个批次，其余批次及其聚落行级联删除。
// 约束：MAP_TAG 为空时对所有地图标签逐一执行。
func main() {
	cfg := config.Load()
	l := logger.Setup()
	defer logger.Close()
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	st := store.AttachDB(db)
	defer st.Close()
	ctx := context.Background()
	tags := []string{cfg.MapTag}
	if cfg.MapTag == "" {
		maps, err := st.ListMapTags(ctx)
		if err != nil {
			l.Error("list_maps_error", "err", err)
			os.Exit(1)
		}
		tags = tags[:0]
		for _, m := range maps {
			tags = append(tags, m.Tag)
		}
	}
	var total int64
	for _, tag := range tags {
		n, err := st.PruneRuns(ctx, tag, cfg.RunsKeepN)
		if err != nil {
			l.Error("runs_prune_error", "map_tag", tag, "err", err)
			os.Exit(1)
		}
		total += n
	}
	l.Info("runs_prune_done", "maps", len(tags), "keep", cfg.RunsKeepN, "deleted", total)
}
