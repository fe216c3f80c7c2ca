// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"rtw-settlements/internal/cache"
	"rtw-settlements/internal/locate"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/regions"
	"rtw-settlements/internal/store"
	"time"
)

// Reader：路由依赖的只读数据源，由 *store.Store 实现
type Reader interface {
	LatestSettlements(ctx context.Context, tag string) ([]locate.Settlement, error)
	LatestRunID(ctx context.Context, tag string) (int64, error)
	SettlementInRun(ctx context.Context, runID int64, name string) (*locate.Settlement, error)
	ListMapTags(ctx context.Context) ([]store.MapInfo, error)
	RegionRecords(ctx context.Context, tag string) ([]regions.Record, error)
}

type settlementsResult struct {
	Map         string              `json:"map"`
	Settlements []locate.Settlement `json:"settlements"`
}

type errorResult struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// instrument：按路由计数并记录耗时
func instrument(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.APIRequestsTotal.WithLabelValues(route).Inc()
		h(w, r)
		metrics.APIDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	}
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API 前缀
// 约束：rc 与 lru 均可为 nil，此时直接查询数据库
func BuildRoutes(st Reader, rc *cache.ResultCache, lru *cache.LRU) *http.ServeMux {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/settlements", instrument("settlements", func(w http.ResponseWriter, r *http.Request) {
		tag := r.URL.Query().Get("map")
		if tag == "" {
			writeJSON(w, http.StatusBadRequest, errorResult{Error: "missing map"})
			return
		}
		list, err := st.LatestSettlements(r.Context(), tag)
		if err != nil {
			logger.L().Error("api_settlements_error", "map", tag, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, settlementsResult{Map: tag, Settlements: list})
	}))

	// 先取最近批次 id，再按 进程内 LRU → Redis → PostgreSQL 查找，命中后逐级回填
	// 约束：缓存键含批次 id，重新扫描后不会返回旧批次的坐标
	apiMux.HandleFunc("/settlement", instrument("settlement", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tag := r.URL.Query().Get("map")
		name := r.URL.Query().Get("name")
		if tag == "" || name == "" {
			writeJSON(w, http.StatusBadRequest, errorResult{Error: "missing map or name"})
			return
		}
		runID, err := st.LatestRunID(ctx, tag)
		if err != nil {
			logger.L().Error("api_settlement_error", "map", tag, "name", name, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: "internal error"})
			return
		}
		if runID == 0 {
			writeJSON(w, http.StatusNotFound, errorResult{Error: "settlement not found"})
			return
		}
		key := cache.SettlementKey(tag, runID, name)
		if lru != nil {
			if v, ok := lru.Get(key); ok {
				logger.L().Debug("api_lru_hit", "key", key)
				writeJSON(w, http.StatusOK, v)
				return
			}
		}
		var v locate.Settlement
		if rc.Get(ctx, key, &v) {
			if lru != nil {
				lru.Set(key, v)
			}
			writeJSON(w, http.StatusOK, v)
			return
		}
		found, err := st.SettlementInRun(ctx, runID, name)
		if err != nil {
			logger.L().Error("api_settlement_error", "map", tag, "name", name, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: "internal error"})
			return
		}
		if found == nil {
			writeJSON(w, http.StatusNotFound, errorResult{Error: "settlement not found"})
			return
		}
		if err := rc.Set(ctx, key, found); err != nil {
			logger.L().Warn("api_cache_set_error", "key", key, "err", err)
		}
		if lru != nil {
			lru.Set(key, *found)
		}
		writeJSON(w, http.StatusOK, found)
	}))

	apiMux.HandleFunc("/maps", instrument("maps", func(w http.ResponseWriter, r *http.Request) {
		list, err := st.ListMapTags(r.Context())
		if err != nil {
			logger.L().Error("api_maps_error", "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: "internal error"})
			return
		}
		writeJSON(w, http.StatusOK, list)
	}))

	apiMux.HandleFunc("/regions", instrument("regions", func(w http.ResponseWriter, r *http.Request) {
		tag := r.URL.Query().Get("map")
		if tag == "" {
			writeJSON(w, http.StatusBadRequest, errorResult{Error: "missing map"})
			return
		}
		list, err := st.RegionRecords(r.Context(), tag)
		if err != nil {
			logger.L().Error("api_regions_error", "map", tag, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResult{Error: "internal error"})
			return
		}
		if list == nil {
			list = []regions.Record{}
		}
		writeJSON(w, http.StatusOK, list)
	}))

	return apiMux
}
