package locate

import (
	"rtw-settlements/internal/bitmap"
	"rtw-settlements/internal/logger"
	"rtw-settlements/internal/metrics"
	"rtw-settlements/internal/regions"
	"time"
)

const (
	ModeCatalog = "catalog"
	ModeMapOnly = "map_only"
)

// neighbors 按 西、东、北、南 顺序返回相邻像素颜色，越界方向不产生候选
func neighbors(g bitmap.Grid, x, y int) []regions.Color {
	out := make([]regions.Color, 0, 4)
	if x > 0 {
		out = append(out, g.At(x-1, y))
	}
	if x < g.Width()-1 {
		out = append(out, g.At(x+1, y))
	}
	if y > 0 {
		out = append(out, g.At(x, y-1))
	}
	if y < g.Height()-1 {
		out = append(out, g.At(x, y+1))
	}
	return out
}

// scan 以行优先顺序对每个标记像素调用 fn；fn 返回错误时立即停止
func scan(g bitmap.Grid, fn func(x, y int) error) (int, error) {
	markers := 0
	w, h := g.Width(), g.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !IsMarker(g.At(x, y)) {
				continue
			}
			markers++
			if err := fn(x, y); err != nil {
				return markers, err
			}
		}
	}
	return markers, nil
}

// resolve 返回相邻颜色中第一个在索引内的颜色（西、东、北、南）
// 约束：多个相邻颜色都在索引内时按该顺序取第一个，结果可复现
func resolve(g bitmap.Grid, c *regions.Catalog, x, y int) (regions.Color, string, bool) {
	for _, col := range neighbors(g, x, y) {
		if name, ok := c.Lookup(col); ok {
			return col, name, true
		}
	}
	return regions.Color{}, "", false
}

// WithCatalog：描述文件模式，返回按遇到顺序排列的聚落列表
// 约束：任一标记无法归属时返回 *UnresolvableMarkerError 且不返回部分结果
func WithCatalog(g bitmap.Grid, c *regions.Catalog) ([]Settlement, error) {
	start := time.Now()
	var out []Settlement
	h := g.Height()
	markers, err := scan(g, func(x, y int) error {
		col, name, ok := resolve(g, c, x, y)
		if !ok {
			return &UnresolvableMarkerError{X: x, Y: y}
		}
		px := Point{X: x, Y: y}
		out = append(out, Settlement{Name: name, Pixel: px, Coord: GameCoord(px, h), Color: col})
		return nil
	})
	metrics.ObserveScan(ModeCatalog, markers, len(out), 0, time.Since(start))
	if err != nil {
		metrics.UnresolvableMarkersTotal.Inc()
		logger.L().Error("scan_unresolvable_marker", "err", err, "markers", markers)
		return nil, err
	}
	logger.L().Debug("scan_done", "mode", ModeCatalog, "markers", markers, "settlements", len(out))
	return out, nil
}

// ByName 以聚落名为键去重，后出现的位置覆盖先出现的
func ByName(list []Settlement) map[string]Settlement {
	out := make(map[string]Settlement, len(list))
	for _, s := range list {
		out[s.Name] = s
	}
	return out
}

// WithCatalogByName 是 WithCatalog 的按名字映射形式
func WithCatalogByName(g bitmap.Grid, c *regions.Catalog) (map[string]Settlement, error) {
	list, err := WithCatalog(g, c)
	if err != nil {
		return nil, err
	}
	return ByName(list), nil
}

// MapOnly：仅位图模式
// 约束：取第一个既非海洋也非港口的相邻颜色作为区域颜色，不做歧义检查；没有时记为无效标记，不中止扫描
func MapOnly(g bitmap.Grid) MapOnlyResult {
	start := time.Now()
	var res MapOnlyResult
	h := g.Height()
	markers, _ := scan(g, func(x, y int) error {
		for _, col := range neighbors(g, x, y) {
			if IsSea(col) || IsPort(col) {
				continue
			}
			px := Point{X: x, Y: y}
			res.Settlements = append(res.Settlements, Settlement{Pixel: px, Coord: GameCoord(px, h), Color: col})
			return nil
		}
		res.Invalid = append(res.Invalid, Point{X: x, Y: y})
		return nil
	})
	metrics.ObserveScan(ModeMapOnly, markers, len(res.Settlements), len(res.Invalid), time.Since(start))
	logger.L().Debug("scan_done", "mode", ModeMapOnly, "markers", markers, "settlements", len(res.Settlements), "invalid", len(res.Invalid))
	return res
}
