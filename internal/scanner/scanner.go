// Package scanner 组合解析、命名/字符串检测、缓存与评分，完成单个类文件的扫描
package scanner

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/jar-analysis/jar-analysis-go/internal/cache"
	"github.com/jar-analysis/jar-analysis-go/internal/classfile"
	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/heuristics"
	"github.com/jar-analysis/jar-analysis-go/internal/scoring"
)

// Outcome 单个类文件的扫描路径
type Outcome string

const (
	OutcomeParsed      Outcome = "parsed"
	OutcomeCached      Outcome = "cached"
	OutcomeNonStandard Outcome = "non_standard"
	OutcomeSuppressed  Outcome = "suppressed"
	OutcomeError       Outcome = "error"
)

// Observer 扫描结果观察者（指标采集）
type Observer interface {
	ObserveClass(outcome Outcome, findings domain.Findings, score int)
}

// Scanner 扫描器。缓存、安全字符串集合和定制 JVM 标记都属于实例，在所有 worker 间共享
type Scanner struct {
	opts      Options
	logger    *logrus.Logger
	cache     *cache.FindingCache
	memo      *heuristics.SafeStringMemo
	names     *heuristics.NameAnalyzer
	strs      *heuristics.StringAnalyzer
	customJVM *atomic.Bool
	observer  Observer

	parse func([]byte) (*classfile.ClassDetails, error)
}

// New 创建扫描器
func New(opts Options, logger *logrus.Logger) *Scanner {
	opts = opts.withDefaults()
	memo := heuristics.NewSafeStringMemo()

	return &Scanner{
		opts:      opts,
		logger:    logger,
		cache:     cache.NewFindingCache(opts.CacheCapacity),
		memo:      memo,
		names:     heuristics.NewNameAnalyzer(opts.Keywords, opts.IgnoredKeywords),
		strs:      heuristics.NewStringAnalyzer(memo, opts.MaxStringsPerClass),
		customJVM: atomic.NewBool(false),
		parse:     classfile.Parse,
	}
}

// SetObserver 设置观察者，需在开始扫描前调用
func (s *Scanner) SetObserver(o Observer) {
	s.observer = o
}

// Options 当前选项
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan 扫描单个类文件。返回 nil, nil 表示结果因评分过低被抑制
func (s *Scanner) Scan(data []byte, path string, info *domain.ResourceInfo) (*domain.ScanResult, error) {
	hash := cache.Hash(data)

	if findings, ok := s.cache.Get(hash); ok {
		s.logger.WithFields(logrus.Fields{"path": path, "hash": hash}).Debug("缓存命中")
		return s.finish(OutcomeCached, path, findings, nil, info), nil
	}

	if !classfile.HasStandardMagic(data) {
		s.customJVM.Store(true)
		findings := s.cache.Store(hash, domain.Findings{})
		s.logger.WithFields(logrus.Fields{"path": path, "size": len(data)}).Debug("非标准类文件，可能存在定制 JVM 加载器")
		return s.finish(OutcomeNonStandard, path, findings, nil, info), nil
	}

	details, err := s.parse(data)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"path": path, "error": err}).Debug("类文件解析失败")
		s.observe(OutcomeError, nil, 0)
		return nil, NewParseError(path, err)
	}

	var findings domain.Findings
	findings = append(findings, s.names.Analyze(details)...)
	findings = append(findings, s.strs.Analyze(details.Strings)...)
	findings = s.cache.Store(hash, findings)

	s.logger.WithFields(logrus.Fields{
		"path":     path,
		"class":    details.ClassName,
		"findings": len(findings),
	}).Debug("类文件解析完成")

	return s.finish(OutcomeParsed, path, findings, details, info), nil
}

func (s *Scanner) finish(outcome Outcome, path string, findings domain.Findings, details *classfile.ClassDetails, info *domain.ResourceInfo) *domain.ScanResult {
	score := scoring.Score(findings)

	if !s.opts.Verbose && score < s.opts.ReportThreshold {
		s.observe(OutcomeSuppressed, findings, score)
		return nil
	}
	s.observe(outcome, findings, score)

	return &domain.ScanResult{
		FilePath:          path,
		Matches:           findings,
		ClassDetails:      details,
		ResourceInfo:      info,
		DangerScore:       score,
		DangerExplanation: scoring.Explain(score, findings),
	}
}

func (s *Scanner) observe(outcome Outcome, findings domain.Findings, score int) {
	if s.observer != nil {
		s.observer.ObserveClass(outcome, findings, score)
	}
}

// CustomJVMIndicator 本次运行是否遇到过非标准类文件，只会由 false 变为 true
func (s *Scanner) CustomJVMIndicator() bool {
	return s.customJVM.Load()
}

// CacheLen 缓存条目数
func (s *Scanner) CacheLen() int {
	return s.cache.Len()
}

// SafeStringCount 已确认无害的字符串数量
func (s *Scanner) SafeStringCount() int {
	return s.memo.Len()
}
