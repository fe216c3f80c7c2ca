// 包 config：从 .env 与环境变量读取运行配置，缺省值集中在 Default
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config：命令行工具与查询服务共用的运行配置
type Config struct {
	OutDir           string
	MapTag           string
	PersistToDB      bool
	ScanCacheEnabled bool
	ScanCacheTTL     time.Duration
	MetricsTextfile  string
	RunsKeepN        int

	Addr             string
	APIBase          string
	LRUCapacity      int
	LRUTTLSec        int
	RateLimitEnabled bool
	RateLimitQPS     int

	RegionsSrc string
	IngestHour int
	IngestTZ   string
}

func Default() *Config {
	return &Config{
		OutDir:       ".",
		ScanCacheTTL: 24 * time.Hour,
		RunsKeepN:    10,
		Addr:         ":8080",
		APIBase:      "/api",
		LRUCapacity:  1024,
		LRUTTLSec:    300,
		RateLimitQPS: 200,
		IngestHour:   3,
		IngestTZ:     "UTC",
	}
}

// Load：先加载 .env（文件不存在时忽略），再读取环境变量
func Load(files ...string) *Config {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
	return FromEnv()
}

// FromEnv 只读取当前进程环境
func FromEnv() *Config {
	c := Default()
	if v := os.Getenv("OUT_DIR"); v != "" {
		c.OutDir = v
	}
	c.MapTag = os.Getenv("MAP_TAG")
	c.PersistToDB = envBool("PERSIST_TO_DB")
	c.ScanCacheEnabled = envBool("SCAN_CACHE_ENABLED")
	if n, ok := envInt("SCAN_CACHE_TTL_SEC"); ok {
		c.ScanCacheTTL = time.Duration(n) * time.Second
	}
	c.MetricsTextfile = os.Getenv("METRICS_TEXTFILE")
	if n, ok := envInt("RUNS_KEEP_N"); ok {
		c.RunsKeepN = n
	}
	if v := os.Getenv("ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("API_BASE"); v != "" {
		c.APIBase = v
	}
	if n, ok := envInt("LRU_CAPACITY"); ok {
		c.LRUCapacity = n
	}
	if n, ok := envInt("LRU_TTL_SEC"); ok {
		c.LRUTTLSec = n
	}
	c.RateLimitEnabled = envBool("RATE_LIMIT_ENABLED")
	if n, ok := envInt("RATE_LIMIT_QPS"); ok {
		c.RateLimitQPS = n
	}
	c.RegionsSrc = os.Getenv("REGIONS_SRC")
	if n, ok := envInt("INGEST_HOUR"); ok {
		c.IngestHour = n
	}
	if v := os.Getenv("INGEST_TZ"); v != "" {
		c.IngestTZ = v
	}
	_ = c.Validate()
	return c
}

// Validate 把非法取值回退为缺省值
func (c *Config) Validate() error {
	d := Default()
	if strings.TrimSpace(c.OutDir) == "" {
		c.OutDir = d.OutDir
	}
	if c.ScanCacheTTL <= 0 {
		c.ScanCacheTTL = d.ScanCacheTTL
	}
	if c.RunsKeepN <= 0 {
		c.RunsKeepN = d.RunsKeepN
	}
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if !strings.HasPrefix(c.APIBase, "/") {
		c.APIBase = "/" + c.APIBase
	}
	c.APIBase = strings.TrimRight(c.APIBase, "/")
	if c.APIBase == "" {
		c.APIBase = d.APIBase
	}
	if c.LRUCapacity <= 0 {
		c.LRUCapacity = d.LRUCapacity
	}
	if c.LRUTTLSec <= 0 {
		c.LRUTTLSec = d.LRUTTLSec
	}
	if c.RateLimitQPS <= 0 {
		c.RateLimitQPS = d.RateLimitQPS
	}
	if c.IngestHour < 0 || c.IngestHour > 23 {
		c.IngestHour = d.IngestHour
	}
	if _, err := time.LoadLocation(c.IngestTZ); err != nil {
		c.IngestTZ = d.IngestTZ
	}
	return nil
}

func envBool(key string) bool {
	return strings.EqualFold(os.Getenv(key), "true")
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
