package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MarkersTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtw_markers_total",
		Help: "Total number of settlement marker pixels scanned",
	}, []string{"mode"})
	SettlementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtw_settlements_total",
		Help: "Total number of settlements located",
	}, []string{"mode"})
	InvalidMarkersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtw_invalid_markers_total",
		Help: "Total number of map-only markers bordered only by sea or port",
	})
	UnresolvableMarkersTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtw_unresolvable_markers_total",
		Help: "Total number of catalog scans aborted on an unresolvable marker",
	})
	RegionsParsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtw_regions_parsed_total",
		Help: "Total number of region records parsed",
	})
	ScanDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rtw_scan_duration_ms",
		Help:    "Bitmap scan duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 250, 500, 1000, 5000},
	}, []string{"mode"})
	ScanCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtw_scan_cache_hits_total",
		Help: "Total scan result cache hits",
	})
	ScanCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rtw_scan_cache_misses_total",
		Help: "Total scan result cache misses",
	})
	APIRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rtw_api_requests_total",
		Help: "Total API requests by route",
	}, []string{"route"})
	APIDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtw_api_duration_ms",
		Help:    "API request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
)

func init() {
	prometheus.MustRegister(MarkersTotal)
	prometheus.MustRegister(SettlementsTotal)
	prometheus.MustRegister(InvalidMarkersTotal)
	prometheus.MustRegister(UnresolvableMarkersTotal)
	prometheus.MustRegister(RegionsParsedTotal)
	prometheus.MustRegister(ScanDurationMs)
	prometheus.MustRegister(ScanCacheHitsTotal)
	prometheus.MustRegister(ScanCacheMissesTotal)
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIDurationMs)
}

// ObserveScan 记录一次扫描的标记数、结果数与耗时
func ObserveScan(mode string, markers, settlements, invalid int, d time.Duration) {
	MarkersTotal.WithLabelValues(mode).Add(float64(markers))
	SettlementsTotal.WithLabelValues(mode).Add(float64(settlements))
	InvalidMarkersTotal.Add(float64(invalid))
	ScanDurationMs.WithLabelValues(mode).Observe(float64(d.Milliseconds()))
}

// Handler 暴露已注册指标，供查询服务挂载到 /metrics
func Handler() http.Handler { return promhttp.Handler() }

// WriteTextfile：批处理运行结束时把指标写成 node_exporter textfile 格式
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
