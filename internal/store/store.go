// 包 store: 提供与 PostgreSQL 的数据访问层，包含扫描批次写入与聚落查询
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"rtw-settlements/internal/locate"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/regions"
	"time"

	"github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池并提供扫描结果读写接口
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

// Close: 关闭数据库连接
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// MapInfo: 某个地图标签的扫描批次概况
type MapInfo struct {
	Tag      string    `json:"map"`
	Runs     int       `json:"runs"`
	LastScan time.Time `json:"last_scan"`
}

// 文档注释：保存一次扫描结果
// 背景：批次行、聚落行与无效标记行在同一事务内写入，任一失败整体回滚。
// 约束：聚落按扫描顺序写入，读取时按 id 排序即可还原行主序。
func (s *Store) SaveRun(ctx context.Context, tag, mode string, settlements []locate.Settlement, invalid []locate.Point) (int64, error) {
	if tag == "" {
		return 0, errors.New("empty map tag")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	var runID int64
	if err := tx.QueryRowContext(ctx, `INSERT INTO _rtw_scan_runs(map_tag, mode, settlements, invalid) VALUES($1,$2,$3,$4) RETURNING id`,
		tag, mode, len(settlements), len(invalid)).Scan(&runID); err != nil {
		return 0, err
	}
	if len(settlements) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO _rtw_settlements(run_id, map_tag, name, x, y, pixel_y, r, g, b) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`)
		if err != nil {
			return 0, err
		}
		for _, st := range settlements {
			if _, err := stmt.ExecContext(ctx, runID, tag, st.Name, st.Coord.X, st.Coord.Y, st.Pixel.Y, st.Color.R, st.Color.G, st.Color.B); err != nil {
				return 0, err
			}
		}
	}
	if len(invalid) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO _rtw_invalid_markers(run_id, x, y) VALUES($1,$2,$3)`)
		if err != nil {
			return 0, err
		}
		for _, p := range invalid {
			if _, err := stmt.ExecContext(ctx, runID, p.X, p.Y); err != nil {
				return 0, err
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	logger.L().Info("run_saved", "map_tag", tag, "mode", mode, "run_id", runID, "settlements", len(settlements), "invalid", len(invalid))
	return runID, nil
}

const latestRun = `(SELECT id FROM _rtw_scan_runs WHERE map_tag=$1 ORDER BY id DESC LIMIT 1)`

func scanSettlement(sc interface{ Scan(...any) error }) (locate.Settlement, error) {
	var st locate.Settlement
	err := sc.Scan(&st.Name, &st.Coord.X, &st.Coord.Y, &st.Pixel.Y, &st.Color.R, &st.Color.G, &st.Color.B)
	st.Pixel.X = st.Coord.X
	return st, err
}

// LatestSettlements: 返回该地图最近一次扫描的全部聚落；无批次时返回空切片
func (s *Store) LatestSettlements(ctx context.Context, tag string) ([]locate.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, x, y, pixel_y, r, g, b FROM _rtw_settlements WHERE run_id=`+latestRun+` ORDER BY id`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []locate.Settlement{}
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	logger.L().Debug("db_latest_settlements", "map_tag", tag, "count", len(out))
	return out, rows.Err()
}

// LatestRunID: 该地图最近一次扫描的批次 id；没有批次时返回 0
func (s *Store) LatestRunID(ctx context.Context, tag string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM _rtw_scan_runs WHERE map_tag=$1 ORDER BY id DESC LIMIT 1`, tag).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// SettlementInRun: 在指定批次中按名称查找聚落；重名时取最后写入的一行，未命中返回 nil
func (s *Store) SettlementInRun(ctx context.Context, runID int64, name string) (*locate.Settlement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, x, y, pixel_y, r, g, b FROM _rtw_settlements WHERE run_id=$1 AND name=$2 ORDER BY id DESC LIMIT 1`, runID, name)
	st, err := scanSettlement(row)
	if errors.Is(err, sql.ErrNoRows) {
		logger.L().Debug("db_lookup_miss", "run_id", runID, "name", name)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	logger.L().Debug("db_lookup_hit", "run_id", runID, "name", name)
	return &st, nil
}

// LookupSettlement: 在最近一次扫描中按名称查找聚落；地图没有批次或未命中时返回 nil
func (s *Store) LookupSettlement(ctx context.Context, tag, name string) (*locate.Settlement, error) {
	runID, err := s.LatestRunID(ctx, tag)
	if err != nil || runID == 0 {
		return nil, err
	}
	return s.SettlementInRun(ctx, runID, name)
}

// ListMapTags: 列出所有地图标签及其批次数与最近扫描时间，按标签排序
func (s *Store) ListMapTags(ctx context.Context) ([]MapInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT map_tag, count(*), max(created_at) FROM _rtw_scan_runs GROUP BY map_tag ORDER BY map_tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []MapInfo{}
	for rows.Next() {
		var m MapInfo
		if err := rows.Scan(&m.Tag, &m.Runs, &m.LastScan); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// RegionRecords: 读取已导入的区域记录（含资源列表与宗教构成），按颜色排序
func (s *Store) RegionRecords(ctx context.Context, tag string) ([]regions.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT province, legion, settlement, faction, rebel, r, g, b, resources, triumph, farm, religions FROM _rtw_regions WHERE map_tag=$1 ORDER BY r, g, b`, tag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []regions.Record
	for rows.Next() {
		var (
			rec regions.Record
			rel []byte
		)
		if err := rows.Scan(&rec.Province, &rec.Legion, &rec.Settlement, &rec.Faction, &rec.Rebel,
			&rec.Color.R, &rec.Color.G, &rec.Color.B, pq.Array(&rec.Resources), &rec.Triumph, &rec.Farm, &rel); err != nil {
			return nil, err
		}
		rec.Religions = make(map[string]int)
		if len(rel) > 0 {
			if err := json.Unmarshal(rel, &rec.Religions); err != nil {
				return nil, err
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// 文档注释：扫描批次保留窗口
// 背景：按 map_tag 分组，只保留最近 keep 个批次；聚落与无效标记随批次级联删除。
// 返回：被删除的批次数。
func (s *Store) PruneRuns(ctx context.Context, tag string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, errors.New("keep must be positive")
	}
	res, err := s.db.ExecContext(ctx, `WITH ranked AS (
            SELECT id, ROW_NUMBER() OVER(ORDER BY id DESC) AS rn
            FROM _rtw_scan_runs WHERE map_tag=$1
          )
          DELETE FROM _rtw_scan_runs s
          USING ranked r
          WHERE s.id = r.id AND r.rn > $2`, tag, keep)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	logger.L().Info("runs_pruned", "map_tag", tag, "keep", keep, "deleted", n)
	return n, nil
}
