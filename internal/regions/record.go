// 包 regions：解析 descr_regions.txt 区域描述，并按边界颜色建立 颜色→聚落 索引
package regions

import "fmt"

// Color：区域边界颜色（三通道）
// 约束：解析阶段不做 0–255 范围校验；越界值不会与任何像素相等
type Color struct {
	R int
	G int
	B int
}

// String 返回 "r,g,b" 形式，便于日志与缓存键
func (c Color) String() string { return fmt.Sprintf("%d,%d,%d", c.R, c.G, c.B) }

// Less 按 R、G、B 字典序比较
func (c Color) Less(o Color) bool {
	if c.R != o.R {
		return c.R < o.R
	}
	if c.G != o.G {
		return c.G < o.G
	}
	return c.B < o.B
}

// Record：一条区域描述记录，解析后只读
type Record struct {
	Province   string         `json:"province"`
	Legion     string         `json:"legion,omitempty"`
	Settlement string         `json:"settlement"`
	Faction    string         `json:"faction"`
	Rebel      string         `json:"rebel"`
	Color      Color          `json:"color"`
	Resources  []string       `json:"resources"`
	Triumph    int            `json:"triumph"`
	Farm       int            `json:"farm"`
	Religions  map[string]int `json:"religions"`
}
