package scanner

import (
	"github.com/jar-analysis/jar-analysis-go/internal/cache"
	"github.com/jar-analysis/jar-analysis-go/internal/heuristics"
)

// DefaultReportThreshold 非 verbose 模式下低于该评分的结果不输出
const DefaultReportThreshold = 4

// Options 扫描选项，扫描器只读
type Options struct {
	Verbose            bool
	CacheCapacity      int
	Workers            int // 由驱动工作池的调用方解析，0 表示使用全部 CPU
	ReportThreshold    int
	MaxStringsPerClass int
	Keywords           []string // 可疑关键字，为空时使用内置列表
	IgnoredKeywords    []string // 从忽略列表文件加载
}

// DefaultOptions 默认选项
func DefaultOptions() Options {
	return Options{
		CacheCapacity:      cache.DefaultCapacity,
		ReportThreshold:    DefaultReportThreshold,
		MaxStringsPerClass: heuristics.DefaultMaxCandidates,
	}
}

func (o Options) withDefaults() Options {
	if o.CacheCapacity <= 0 {
		o.CacheCapacity = cache.DefaultCapacity
	}
	if o.ReportThreshold <= 0 {
		o.ReportThreshold = DefaultReportThreshold
	}
	if o.MaxStringsPerClass <= 0 {
		o.MaxStringsPerClass = heuristics.DefaultMaxCandidates
	}
	if len(o.Keywords) == 0 {
		o.Keywords = heuristics.DefaultSuspiciousKeywords
	}
	return o
}
