package regions

import "sort"

// Catalog：边界颜色 → 聚落名 索引
// 约束：按记录顺序写入，颜色冲突时后者覆盖前者，不告警；构建后只读
type Catalog struct {
	byColor map[Color]string
	records []Record
}

func NewCatalog(records []Record) *Catalog {
	c := &Catalog{byColor: make(map[Color]string, len(records)), records: records}
	for _, r := range records {
		c.byColor[r.Color] = r.Settlement
	}
	return c
}

// Lookup 返回颜色对应的聚落名
func (c *Catalog) Lookup(col Color) (string, bool) {
	name, ok := c.byColor[col]
	return name, ok
}

// Len 返回不同边界颜色的数量
func (c *Catalog) Len() int { return len(c.byColor) }

// Colors 返回全部已知颜色，按 R、G、B 升序
func (c *Catalog) Colors() []Color {
	out := make([]Color, 0, len(c.byColor))
	for col := range c.byColor {
		out = append(out, col)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Records 返回构建索引所用的原始记录（文件顺序）
func (c *Catalog) Records() []Record { return c.records }
