// 程序入口：仅负责读取配置、初始化依赖并启动查询服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"rtw-settlements/internal/api"
	"rtw-settlements/internal/cache"
	"rtw-settlements/internal/config"
	"rtw-settlements/internal/ingest"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/middleware"
	"rtw-settlements/internal/migrate"
	"rtw-settlements/internal/store"
	"rtw-settlements/internal/utils"
	"time"
)

func main() {
	cfg := config.Load(".env", filepath.Join("data", "env", ".env"))
	// 日志初始化
	l := logger.Setup()
	defer logger.Close()
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)

	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		l.Error("db_open_error", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	l.Info("db_open_ok")
	if err := db.Ping(); err != nil {
		l.Error("db_ping_error", "err", err)
	} else {
		l.Info("db_ping_ok")
	}
	st := store.AttachDB(db)
	if err := migrate.EnsureSchema(context.Background(), st.DB()); err != nil {
		l.Error("schema_error", "err", err)
		os.Exit(1)
	}

	rc := utils.OpenRedisFromEnv()
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(context.Background()).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
	}

	// 配置了 REGIONS_SRC 时每周后台刷新区域表
	if cfg.RegionsSrc != "" {
		tag := cfg.MapTag
		if tag == "" {
			tag = "base"
		}
		loc, _ := time.LoadLocation(cfg.IngestTZ)
		ingest.StartWeekly(context.Background(), db, cfg.RegionsSrc, tag, loc, cfg.IngestHour)
	}

	lru := cache.NewLRU(cfg.LRUCapacity, cfg.LRUTTLSec)
	apiMux := api.BuildRoutes(st, cache.NewResultCache(rc, cfg.ScanCacheTTL), lru)
	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	handler := logger.AccessMiddleware(l)(mux)
	handler = middleware.Wrap(cfg, handler)
	s := &http.Server{Addr: cfg.Addr, Handler: handler}
	l.Info("listening", "addr", cfg.Addr)
	if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
}
