// 包 ingest：读取 descr_regions.txt（本地文件或 HTTP 源）并批量写入区域表
package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/regions"
	"strings"

	"github.com/lib/pq"
)

// 每批提交的行数
var batchSize = 500

const upsertRegion = `INSERT INTO _rtw_regions(map_tag,province,legion,settlement,faction,rebel,r,g,b,resources,triumph,farm,religions)
        VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        ON CONFLICT (map_tag,r,g,b) DO UPDATE SET province=EXCLUDED.province, legion=EXCLUDED.legion,
            settlement=EXCLUDED.settlement, faction=EXCLUDED.faction, rebel=EXCLUDED.rebel,
            resources=EXCLUDED.resources, triumph=EXCLUDED.triumph, farm=EXCLUDED.farm,
            religions=EXCLUDED.religions, updated_at=now()`

var client = &http.Client{}

// FetchRegions：src 以 http:// 或 https:// 开头时走网络，否则按本地路径读取
// 异常：网络错误/非 200 状态/读文件失败直接返回，不做重试
func FetchRegions(ctx context.Context, src string) ([]regions.Record, error) {
	var r io.ReadCloser
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: bad status %d", src, resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(src)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()
	recs, err := regions.NewParser().ParseReader(r)
	if err != nil {
		return nil, err
	}
	metrics.RegionsParsedTotal.Add(float64(len(recs)))
	logger.L().Info("regions_fetched", "src", src, "count", len(recs))
	return recs, nil
}

// ImportRegions：按文件顺序 UPSERT 区域记录，每 batchSize 行提交一次
// 约束：同一 map_tag 下颜色冲突时后写覆盖先写，与内存索引的冲突策略一致
func ImportRegions(ctx context.Context, db *sql.DB, tag string, records []regions.Record) (int, error) {
	if tag == "" {
		return 0, errors.New("empty map tag")
	}
	logger.L().Info("regions_import_start", "map_tag", tag, "records", len(records))
	var (
		tx   *sql.Tx
		stmt *sql.Stmt
	)
	begin := func() error {
		var err error
		if tx, err = db.BeginTx(ctx, nil); err != nil {
			return err
		}
		if stmt, err = tx.PrepareContext(ctx, upsertRegion); err != nil {
			_ = tx.Rollback()
			return err
		}
		return nil
	}
	if err := begin(); err != nil {
		return 0, err
	}
	count := 0
	for _, rec := range records {
		rel, err := json.Marshal(rec.Religions)
		if err != nil {
			_ = tx.Rollback()
			return count, err
		}
		resources := rec.Resources
		if resources == nil {
			resources = []string{}
		}
		if _, err := stmt.ExecContext(ctx, tag, rec.Province, rec.Legion, rec.Settlement, rec.Faction, rec.Rebel,
			rec.Color.R, rec.Color.G, rec.Color.B, pq.Array(resources), rec.Triumph, rec.Farm, string(rel)); err != nil {
			_ = tx.Rollback()
			return count, err
		}
		count++
		if count%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return count, err
			}
			logger.L().Info("regions_import_progress", "count", count)
			if err := begin(); err != nil {
				return count, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return count, err
	}
	logger.L().Info("regions_import_done", "map_tag", tag, "count", count)
	return count, nil
}
