package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// 过滤原因
const (
	ReasonExcluded    = "excluded"
	ReasonNotIncluded = "not_included"
)

// PathFilter 归档内路径的通配符包含/排除过滤器。
// '*' 匹配任意字符序列（包括 '/'），'?' 匹配单个字符
type PathFilter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewPathFilter 编译通配符模式
func NewPathFilter(include, exclude []string) (*PathFilter, error) {
	inc, err := compileAll(include)
	if err != nil {
		return nil, fmt.Errorf("include pattern: %w", err)
	}
	exc, err := compileAll(exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude pattern: %w", err)
	}
	return &PathFilter{include: inc, exclude: exc}, nil
}

// ShouldSkip 返回跳过原因，空字符串表示保留。排除规则优先
func (f *PathFilter) ShouldSkip(path string) string {
	if f == nil {
		return ""
	}
	for _, re := range f.exclude {
		if re.MatchString(path) {
			return ReasonExcluded
		}
	}
	if len(f.include) == 0 {
		return ""
	}
	for _, re := range f.include {
		if re.MatchString(path) {
			return ""
		}
	}
	return ReasonNotIncluded
}

// Allowed 是否保留该路径
func (f *PathFilter) Allowed(path string) bool {
	return f.ShouldSkip(path) == ""
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := compileWildcard(p)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, c := range pattern {
		switch c {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile("(?s)" + b.String())
}
