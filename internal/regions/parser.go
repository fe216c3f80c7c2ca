package regions

import (
	"io"
	"regexp"
	"rtw-settlements/internal/logger"
	"strconv"
	"strings"
)

// 记录格式：province [legion: NAME] settlement faction rebel R G B resources triumph farm [religion value ...]
// 字段间空白可跨行（真实文件每个字段单独一行）；资源列表为单行文本。
// 宗教对可与 farm 同行，也可在其后单独成行；每一对的名称与数值必须同行，
// 因此下一条记录的首行（省名单独一行，或省名后接聚落名）不会被当作宗教对吞掉。
const recordPattern = `(?m)^([\w-]+)\s+(?:legion:\s*(\w+)\s+)?([\w-]+)\s+([\w-]+)\s+([\w-]+)\s+(\d+)\s+(\d+)\s+(\d+)\s+(.+?)\s+(\d+)\s+(\d+)((?:\s+\w+[ \t]+\d+)*)[ \t]*\r?$`

const religionPattern = `(\w+)[ \t]+(\d+)`

// Parser：区域描述解析器，持有各自编译的正则，无进程级可变状态
type Parser struct {
	record   *regexp.Regexp
	religion *regexp.Regexp
}

func NewParser() *Parser {
	return &Parser{
		record:   regexp.MustCompile(recordPattern),
		religion: regexp.MustCompile(religionPattern),
	}
}

// Parse：按文件顺序返回所有可识别记录
// 约束：不符合格式的行静默跳过，不返回错误也不记录诊断
func (p *Parser) Parse(content string) []Record {
	var out []Record
	for _, m := range p.record.FindAllStringSubmatch(content, -1) {
		rec, ok := p.build(m)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	logger.L().Debug("regions_parsed", "count", len(out))
	return out
}

// ParseReader 读取完整内容后解析
func (p *Parser) ParseReader(r io.Reader) ([]Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.Parse(string(b)), nil
}

func (p *Parser) build(m []string) (Record, bool) {
	var ints [5]int
	for i, s := range []string{m[6], m[7], m[8], m[10], m[11]} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Record{}, false
		}
		ints[i] = n
	}
	rec := Record{
		Province:   m[1],
		Legion:     m[2],
		Settlement: m[3],
		Faction:    m[4],
		Rebel:      m[5],
		Color:      Color{R: ints[0], G: ints[1], B: ints[2]},
		Resources:  splitResources(m[9]),
		Triumph:    ints[3],
		Farm:       ints[4],
		Religions:  make(map[string]int),
	}
	for _, rm := range p.religion.FindAllStringSubmatch(m[12], -1) {
		v, err := strconv.Atoi(rm[2])
		if err != nil {
			return Record{}, false
		}
		rec.Religions[rm[1]] = v
	}
	return rec, true
}

func splitResources(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Parse 使用一次性解析器解析内容
func Parse(content string) []Record { return NewParser().Parse(content) }
