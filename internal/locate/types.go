// 包 locate：在区域位图上定位聚落标记像素，并解析其所属区域
package locate

import (
	"fmt"
	"rtw-settlements/internal/regions"
)

// 标记、海洋、港口颜色约定
var (
	MarkerColor = regions.Color{R: 0, G: 0, B: 0}
	PortColor   = regions.Color{R: 255, G: 255, B: 255}
)

const (
	seaRed   = 41
	seaGreen = 140
)

// Point：二维整数坐标
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Settlement：一次扫描得到的聚落
// 约束：Pixel 为位图坐标（左上原点），Coord 为游戏坐标（左下原点）；地图模式下 Name 为空
type Settlement struct {
	Name  string        `json:"settlement,omitempty"`
	Pixel Point         `json:"pixel"`
	Coord Point         `json:"coordinate"`
	Color regions.Color `json:"color"`
}

// MapOnlyResult：无描述文件时的扫描结果
// Invalid 中为原始像素坐标，仅用于诊断
type MapOnlyResult struct {
	Settlements []Settlement `json:"settlements"`
	Invalid     []Point      `json:"invalid"`
}

// UnresolvableMarkerError：标记像素的相邻颜色均不在区域索引中
// 约束：X、Y 为原始像素坐标；该错误使整次扫描中止
type UnresolvableMarkerError struct {
	X int
	Y int
}

func (e *UnresolvableMarkerError) Error() string {
	return fmt.Sprintf("could not determine region for settlement at %d, %d", e.X, e.Y)
}

func IsMarker(c regions.Color) bool { return c == MarkerColor }

func IsPort(c regions.Color) bool { return c == PortColor }

// IsSea 只看红、绿通道，蓝通道不限
func IsSea(c regions.Color) bool { return c.R == seaRed && c.G == seaGreen }

// GameCoord 把位图坐标翻转为游戏坐标 (x, height-y-1)
func GameCoord(p Point, height int) Point { return Point{X: p.X, Y: height - p.Y - 1} }

// PixelCoord 是 GameCoord 的逆变换（翻转是自反的）
func PixelCoord(p Point, height int) Point { return Point{X: p.X, Y: height - p.Y - 1} }
