// 包 moddir：把命令行传入的路径解析为扫描输入（模组目录或单独的 map_regions.tga）
package moddir

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	MapRegionsFile   = "map_regions.tga"
	DescrRegionsFile = "descr_regions.txt"
)

var (
	ErrInvalidModDir       = errors.New("invalid mod directory")
	ErrMissingBaseDir      = errors.New("missing data/world/maps/base directory")
	ErrMissingMapRegions   = errors.New("missing map_regions.tga")
	ErrMissingDescrRegions = errors.New("missing descr_regions.txt")
)

// Inputs：一次扫描所需的文件
// 约束：DescrRegions 为空表示仅位图模式
type Inputs struct {
	MapRegions   string
	DescrRegions string
	MapTag       string
}

// MapOnly 报告是否缺少描述文件
func (in Inputs) MapOnly() bool { return in.DescrRegions == "" }

// BaseDir 返回模组内地图目录的相对路径
func BaseDir(modPath string) string {
	return filepath.Join(modPath, "data", "world", "maps", "base")
}

// Resolve：路径为 map_regions.tga 文件（不区分大小写）时进入仅位图模式；否则按模组目录查找两份文件
func Resolve(path string) (Inputs, error) {
	info, err := os.Stat(path)
	if err == nil && info.Mode().IsRegular() && strings.EqualFold(filepath.Base(path), MapRegionsFile) {
		return Inputs{MapRegions: path, MapTag: tagFor(filepath.Dir(path))}, nil
	}
	if err != nil || !info.IsDir() {
		return Inputs{}, ErrInvalidModDir
	}
	base := BaseDir(path)
	if !isDir(base) {
		return Inputs{}, ErrMissingBaseDir
	}
	in := Inputs{
		MapRegions:   filepath.Join(base, MapRegionsFile),
		DescrRegions: filepath.Join(base, DescrRegionsFile),
		MapTag:       tagFor(path),
	}
	if !isFile(in.MapRegions) {
		return Inputs{}, ErrMissingMapRegions
	}
	if !isFile(in.DescrRegions) {
		return Inputs{}, ErrMissingDescrRegions
	}
	return in, nil
}

func tagFor(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return filepath.Base(abs)
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
