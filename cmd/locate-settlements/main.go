// 聚落定位工具：读取模组目录（或单独的 map_regions.tga），输出聚落坐标 CSV
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"rtw-settlements/internal/bitmap"
	"rtw-settlements/internal/cache"
	"rtw-settlements/internal/config"
	"rtw-settlements/internal/export"
	"rtw-settlements/internal/ingest"
	"rtw-settlements/internal/locate"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/migrate"
	"rtw-settlements/internal/moddir"
	"rtw-settlements/internal/regions"
	"rtw-settlements/internal/store"
	"rtw-settlements/internal/utils"
	"time"
)

const usage = "To list settlement names and coordinates:\n" +
	"\tlocate-settlements mod_path\n" +
	"To read map_regions.tga and list coordinates and colors only:\n" +
	"\tlocate-settlements map_regions_path\n"

// 命令行错误提示，保持与目录校验的失败原因一一对应
var resolveMessages = map[error]string{
	moddir.ErrInvalidModDir:       "Invalid mod directory.",
	moddir.ErrMissingBaseDir:      "Missing data/world/maps/base directory.",
	moddir.ErrMissingMapRegions:   "Missing map_regions.tga.",
	moddir.ErrMissingDescrRegions: "Missing descr_regions.txt.",
}

func main() {
	cfg := config.Load()
	logger.Setup()
	code := run(context.Background(), cfg, os.Args[1:], os.Stdout, os.Stderr)
	_ = logger.Close()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) int {
	l := logger.L()
	if len(args) < 1 {
		fmt.Fprint(stdout, usage)
		return 0
	}
	in, err := moddir.Resolve(args[0])
	if err != nil {
		msg, ok := resolveMessages[err]
		if !ok {
			msg = err.Error()
		}
		fmt.Fprintln(stderr, msg)
		return 1
	}
	tag := in.MapTag
	if cfg.MapTag != "" {
		tag = cfg.MapTag
	}
	mode := locate.ModeCatalog
	if in.MapOnly() {
		mode = locate.ModeMapOnly
	}
	l.Info("scan_begin", "map_tag", tag, "mode", mode, "map", in.MapRegions)

	mapBytes, err := os.ReadFile(in.MapRegions)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	var descrBytes []byte
	if !in.MapOnly() {
		if descrBytes, err = os.ReadFile(in.DescrRegions); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	var rc *cache.ResultCache
	if cfg.ScanCacheEnabled {
		rc = cache.NewResultCache(utils.OpenRedisFromEnv(), cfg.ScanCacheTTL)
	}
	key := cache.Digest(mapBytes, descrBytes, []byte(mode))

	var records []regions.Record
	if !in.MapOnly() {
		records = regions.NewParser().Parse(string(descrBytes))
		metrics.RegionsParsedTotal.Add(float64(len(records)))
	}
	var res locate.MapOnlyResult
	if !rc.Get(ctx, key, &res) {
		res, err = scan(mapBytes, records, in.MapOnly())
		if err != nil {
			var ue *locate.UnresolvableMarkerError
			if errors.As(err, &ue) {
				l.Error("scan_aborted", "x", ue.X, "y", ue.Y)
			}
			fmt.Fprintln(stderr, err)
			return 1
		}
		if err := rc.Set(ctx, key, res); err != nil {
			l.Warn("scan_cache_set_error", "err", err)
		}
	}

	if code := writeOutputs(cfg, res, in.MapOnly(), stdout, stderr); code != 0 {
		return code
	}
	if cfg.PersistToDB {
		if err := persist(ctx, cfg, tag, mode, records, res); err != nil {
			l.Error("persist_error", "err", err)
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			l.Warn("metrics_textfile_error", "path", cfg.MetricsTextfile, "err", err)
		}
	}
	return 0
}

// scan 解码位图并按模式扫描；位图在返回前释放，无论扫描是否中止
func scan(mapBytes []byte, records []regions.Record, mapOnly bool) (locate.MapOnlyResult, error) {
	img, err := bitmap.Decode(bytes.NewReader(mapBytes), "tga")
	if err != nil {
		return locate.MapOnlyResult{}, fmt.Errorf("decode %s: %w", moddir.MapRegionsFile, err)
	}
	defer img.Close()
	if mapOnly {
		return locate.MapOnly(img), nil
	}
	list, err := locate.WithCatalog(img, regions.NewCatalog(records))
	if err != nil {
		return locate.MapOnlyResult{}, err
	}
	return locate.MapOnlyResult{Settlements: list}, nil
}

func writeOutputs(cfg *config.Config, res locate.MapOnlyResult, mapOnly bool, stdout, stderr io.Writer) int {
	if !mapOnly {
		path, err := export.SaveSettlements(cfg.OutDir, res.Settlements, true)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "%d settlements saved to %s\n", len(res.Settlements), path)
		return 0
	}
	if len(res.Settlements) == 0 {
		fmt.Fprintln(stdout, "No settlements found.")
	} else {
		path, err := export.SaveSettlements(cfg.OutDir, res.Settlements, false)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "%d settlements saved to %s\n", len(res.Settlements), path)
	}
	if len(res.Invalid) > 0 {
		path, err := export.SaveInvalid(cfg.OutDir, res.Invalid)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "%d invalid settlements saved to %s\n", len(res.Invalid), path)
	}
	return 0
}

// persist：建表、导入区域描述（仅目录模式）、写入批次并按保留窗口清理旧批次
func persist(ctx context.Context, cfg *config.Config, tag, mode string, records []regions.Record, res locate.MapOnlyResult) error {
	db, err := utils.OpenPostgresFromEnv()
	if err != nil {
		return err
	}
	defer db.Close()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if len(records) > 0 {
		if _, err := ingest.ImportRegions(ctx, db, tag, records); err != nil {
			return fmt.Errorf("import regions: %w", err)
		}
	}
	st := store.AttachDB(db)
	if _, err := st.SaveRun(ctx, tag, mode, res.Settlements, res.Invalid); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	_, err = st.PruneRuns(ctx, tag, cfg.RunsKeepN)
	return err
}
