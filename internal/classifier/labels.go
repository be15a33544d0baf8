package classifier

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadLabels 读取标签文件，每行形如 "0 trash"
func LoadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开标签文件失败: %w", err)
	}
	defer f.Close()
	return ParseLabels(f)
}

// ParseLabels 解析标签文件内容；去掉行首的序号并统一为小写
func ParseLabels(r io.Reader) ([]string, error) {
	var labels []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if idx, rest, ok := strings.Cut(line, " "); ok && isDigits(idx) {
			line = strings.TrimSpace(rest)
		}
		labels = append(labels, strings.ToLower(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("读取标签文件失败: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("标签文件为空")
	}
	return labels, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
