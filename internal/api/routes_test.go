package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"rtw-settlements/internal/cache"
	"rtw-settlements/internal/locate"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/regions"
	"rtw-settlements/internal/store"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

// fakeReader：runs[i] 为第 i+1 个批次的聚落
type fakeReader struct {
	runs    [][]locate.Settlement
	lookups int
	err     error
}

func (f *fakeReader) latest() []locate.Settlement {
	if len(f.runs) == 0 {
		return nil
	}
	return f.runs[len(f.runs)-1]
}

func (f *fakeReader) LatestSettlements(ctx context.Context, tag string) ([]locate.Settlement, error) {
	return f.latest(), f.err
}

func (f *fakeReader) LatestRunID(ctx context.Context, tag string) (int64, error) {
	return int64(len(f.runs)), f.err
}

func (f *fakeReader) SettlementInRun(ctx context.Context, runID int64, name string) (*locate.Settlement, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	list := f.runs[runID-1]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i].Name == name {
			st := list[i]
			return &st, nil
		}
	}
	return nil, nil
}

func (f *fakeReader) ListMapTags(ctx context.Context) ([]store.MapInfo, error) {
	return []store.MapInfo{{Tag: "base", Runs: 2}}, f.err
}

func (f *fakeReader) RegionRecords(ctx context.Context, tag string) ([]regions.Record, error) {
	return nil, f.err
}

var roma = locate.Settlement{Name: "Roma", Pixel: locate.Point{X: 1, Y: 1}, Coord: locate.Point{X: 1, Y: 1}, Color: regions.Color{R: 10, G: 20, B: 30}}

func get(t *testing.T, mux http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
	return rec
}

func TestSettlements(t *testing.T) {
	mux := BuildRoutes(&fakeReader{runs: [][]locate.Settlement{{roma}}}, nil, nil)
	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("settlements"))
	rec := get(t, mux, "/settlements?map=base")
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var body settlementsResult
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Map != "base" || len(body.Settlements) != 1 || body.Settlements[0].Name != "Roma" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("settlements")) - before; got != 1 {
		t.Errorf("expected one counted request, got %v", got)
	}
	if rec := get(t, mux, "/settlements"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing map: got %d", rec.Code)
	}
}

func TestSettlement_CacheLayers(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	f := &fakeReader{runs: [][]locate.Settlement{{roma}}}
	lru := cache.NewLRU(8, 60)
	mux := BuildRoutes(f, cache.NewResultCache(rc, time.Minute), lru)

	if rec := get(t, mux, "/settlement?map=base&name=Roma"); rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if f.lookups != 1 {
		t.Fatalf("expected a database lookup, got %d", f.lookups)
	}
	if !mr.Exists(cache.SettlementKey("base", 1, "Roma")) {
		t.Errorf("redis should be populated")
	}
	if _, ok := lru.Get(cache.SettlementKey("base", 1, "Roma")); !ok {
		t.Errorf("lru should be populated")
	}
	rec := get(t, mux, "/settlement?map=base&name=Roma")
	var got locate.Settlement
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if f.lookups != 1 || got != roma {
		t.Errorf("second lookup should be served from cache, lookups=%d got=%+v", f.lookups, got)
	}

	// 新进程：LRU 为空，Redis 命中
	mux = BuildRoutes(f, cache.NewResultCache(rc, time.Minute), cache.NewLRU(8, 60))
	if rec := get(t, mux, "/settlement?map=base&name=Roma"); rec.Code != http.StatusOK || f.lookups != 1 {
		t.Errorf("expected redis hit, code=%d lookups=%d", rec.Code, f.lookups)
	}
}

func TestSettlement_NewRunReplacesCachedAnswer(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rc.Close()
	f := &fakeReader{runs: [][]locate.Settlement{{roma}}}
	mux := BuildRoutes(f, cache.NewResultCache(rc, time.Hour), cache.NewLRU(8, 3600))

	var got locate.Settlement
	rec := get(t, mux, "/settlement?map=base&name=Roma")
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Coord != roma.Coord {
		t.Fatalf("first run: got %+v", got)
	}

	moved := roma
	moved.Coord = locate.Point{X: 7, Y: 8}
	moved.Pixel = locate.Point{X: 7, Y: 1}
	f.runs = append(f.runs, []locate.Settlement{moved})

	got = locate.Settlement{}
	rec = get(t, mux, "/settlement?map=base&name=Roma")
	_ = json.Unmarshal(rec.Body.Bytes(), &got)
	if rec.Code != http.StatusOK || got.Coord != moved.Coord {
		t.Errorf("second run should change the answer, got %d %+v", rec.Code, got)
	}
}

func TestSettlement_Errors(t *testing.T) {
	mux := BuildRoutes(&fakeReader{runs: [][]locate.Settlement{{roma}}}, nil, nil)
	if rec := get(t, mux, "/settlement?map=base"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing name: got %d", rec.Code)
	}
	if rec := get(t, mux, "/settlement?map=base&name=Nowhere"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown name: got %d", rec.Code)
	}
	mux = BuildRoutes(&fakeReader{}, nil, nil)
	if rec := get(t, mux, "/settlement?map=base&name=Roma"); rec.Code != http.StatusNotFound {
		t.Errorf("map without runs: got %d", rec.Code)
	}
	mux = BuildRoutes(&fakeReader{err: errors.New("db down")}, nil, nil)
	if rec := get(t, mux, "/settlement?map=base&name=Roma"); rec.Code != http.StatusInternalServerError {
		t.Errorf("db error: got %d", rec.Code)
	}
	if rec := get(t, mux, "/maps"); rec.Code != http.StatusInternalServerError {
		t.Errorf("db error: got %d", rec.Code)
	}
}

func TestMapsAndRegions(t *testing.T) {
	mux := BuildRoutes(&fakeReader{}, nil, nil)
	rec := get(t, mux, "/maps")
	var maps []store.MapInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &maps); err != nil || len(maps) != 1 || maps[0].Tag != "base" {
		t.Errorf("unexpected maps %s err=%v", rec.Body.String(), err)
	}
	rec = get(t, mux, "/regions?map=base")
	if rec.Code != http.StatusOK || rec.Body.String() != "[]\n" {
		t.Errorf("unexpected regions %d %q", rec.Code, rec.Body.String())
	}
	if rec := get(t, mux, "/regions"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing map: got %d", rec.Code)
	}
}
