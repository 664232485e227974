package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadKeywordIgnoreList 读取关键字忽略列表：每行一个关键字，# 开头为注释
func LoadKeywordIgnoreList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ignore list: %w", err)
	}
	defer f.Close()

	var keywords []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keyword := strings.ToLower(line)
		if _, ok := seen[keyword]; ok {
			continue
		}
		seen[keyword] = struct{}{}
		keywords = append(keywords, keyword)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore list: %w", err)
	}

	return keywords, nil
}
