// 数据导入工具：读取 descr_regions.txt（本地路径或 URL）并批量写入 PostgreSQL
package main

import (
	"context"
	"errors"
	"os"
	"rtw-settlements/internal/config"
	"rtw-settlements/internal/ingest"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/migrate"
	"rtw-settlements/internal/moddir"
	"rtw-settlements/internal/utils"
)

// 用法：regions-ingest [src] [map_tag]
func main() {
	cfg := config.Load()
	l := logger.Setup()
	defer logger.Close()
	src, tag, err := resolveSource(cfg, os.Args[1:])
	if err != nil {
		l.Error("regions_src_missing", "err", err)
		os.Exit(1)
	}
	ctx := context.Background()
	recs, err := ingest.FetchRegions(ctx, src)
	if err != nil {
		l.Error("regions_fetch_error", "src", src, "err", err)
		os.Exit(1)
	}
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}
	n, err := ingest.ImportRegions(ctx, db, tag, recs)
	if err != nil {
		l.Error("regions_import_error", "err", err, "count", n)
		os.Exit(1)
	}
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			l.Warn("metrics_textfile_error", "err", err)
		}
	}
	l.Info("regions_ingest_done", "map_tag", tag, "count", n)
}

// resolveSource：src 缺省取 REGIONS_SRC；src 为模组目录时定位到其中的描述文件
// 约束：标签优先级为 命令行参数 > MAP_TAG > 模组目录名 > base，与 locate-settlements 的缺省标签一致
func resolveSource(cfg *config.Config, args []string) (string, string, error) {
	src := cfg.RegionsSrc
	if len(args) > 0 {
		src = args[0]
	}
	if src == "" {
		return "", "", errors.New("no regions source: pass a path or set REGIONS_SRC")
	}
	tag := cfg.MapTag
	if len(args) > 1 {
		tag = args[1]
	}
	if in, err := moddir.Resolve(src); err == nil && !in.MapOnly() {
		src = in.DescrRegions
		if tag == "" {
			tag = in.MapTag
		}
	}
	if tag == "" {
		tag = "base"
	}
	return src, tag, nil
}
