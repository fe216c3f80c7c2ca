// 包 export：把扫描结果写为 settlements.csv / invalid_settlements.csv
package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"rtw-settlements/internal/locate"
	"strconv"
)

const (
	SettlementsFile = "settlements.csv"
	InvalidFile     = "invalid_settlements.csv"
)

// WriteSettlements：named 为 true 时首列为聚落名；坐标为游戏坐标
func WriteSettlements(w io.Writer, list []locate.Settlement, named bool) error {
	cw := csv.NewWriter(w)
	header := []string{"x", "y", "r", "g", "b"}
	if named {
		header = append([]string{"settlement"}, header...)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range list {
		row := []string{
			strconv.Itoa(s.Coord.X), strconv.Itoa(s.Coord.Y),
			strconv.Itoa(s.Color.R), strconv.Itoa(s.Color.G), strconv.Itoa(s.Color.B),
		}
		if named {
			row = append([]string{s.Name}, row...)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInvalid 写出无效标记的原始像素坐标
func WriteInvalid(w io.Writer, points []locate.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{strconv.Itoa(p.X), strconv.Itoa(p.Y)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveSettlements 在 dir 下写 settlements.csv 并返回路径
func SaveSettlements(dir string, list []locate.Settlement, named bool) (string, error) {
	return save(filepath.Join(dir, SettlementsFile), func(w io.Writer) error {
		return WriteSettlements(w, list, named)
	})
}

// SaveInvalid 在 dir 下写 invalid_settlements.csv 并返回路径
func SaveInvalid(dir string, points []locate.Point) (string, error) {
	return save(filepath.Join(dir, InvalidFile), func(w io.Writer) error {
		return WriteInvalid(w, points)
	})
}

func save(path string, write func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}
