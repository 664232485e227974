package heuristics

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/sourcegraph/conc/iter"
)

// 字符串检测阈值
const (
	DefaultMaxCandidates = 500

	candidateMinLen      = 6
	candidateShortLen    = 30
	obfuscatedMinChars   = 40
	obfuscatedMinJunk    = 30
	obfuscatedJunkPerc   = 85
	webhookMessageMaxLen = 50
)

var webhookPattern = regexp.MustCompile(`https?://(?:ptb\.|canary\.)?discord(?:app)?\.com/api/webhooks/\d+/[A-Za-z0-9_\-]+`)

// StringAnalyzer 常量池字面量检测器，候选集合并行检测
type StringAnalyzer struct {
	memo          *SafeStringMemo
	maxCandidates int
}

// NewStringAnalyzer 创建字符串检测器，memo 在整个扫描运行期间共享
func NewStringAnalyzer(memo *SafeStringMemo, maxCandidates int) *StringAnalyzer {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return &StringAnalyzer{
		memo:          memo,
		maxCandidates: maxCandidates,
	}
}

// Candidates 过滤出值得检测的字面量，保持原有顺序并截断到上限
func (a *StringAnalyzer) Candidates(literals []string) []string {
	var out []string
	for _, s := range literals {
		if len(out) >= a.maxCandidates {
			break
		}
		if len(s) < candidateMinLen || a.memo.Contains(s) {
			continue
		}
		// 排除合法的长 base64 数据块，除非它看起来像自由文本
		if len(s) < candidateShortLen || strings.ContainsRune(s, ' ') || !isBase64Alphabet(s) {
			out = append(out, s)
		}
	}
	return out
}

// Analyze 并行检测候选字面量，结果按候选顺序合并
func (a *StringAnalyzer) Analyze(literals []string) domain.Findings {
	candidates := a.Candidates(literals)
	if len(candidates) == 0 {
		return nil
	}

	partials := iter.Map(candidates, func(s *string) domain.Findings {
		local := CheckString(*s)
		if len(local) == 0 {
			a.memo.Add(*s)
		}
		return local
	})

	var findings domain.Findings
	for _, p := range partials {
		findings = append(findings, p...)
	}
	return findings
}

// CheckString 检测单个字面量：Discord Webhook 与高密度垃圾字符
func CheckString(s string) domain.Findings {
	var findings domain.Findings

	if url := webhookPattern.FindString(s); url != "" {
		findings = append(findings, domain.Finding{
			Type:    domain.FindingDiscordWebhook,
			Message: Truncate(url, webhookMessageMaxLen),
		})
	}

	if finding, ok := CheckObfuscatedString(s); ok {
		findings = append(findings, finding)
	}

	return findings
}

// CheckObfuscatedString 统计控制字符（\n \r \t 除外）和西里尔字母以外的非 ASCII 字符
func CheckObfuscatedString(s string) (domain.Finding, bool) {
	total := utf8.RuneCountInString(s)
	if total < obfuscatedMinChars {
		return domain.Finding{}, false
	}

	junk := 0
	for _, c := range s {
		if c <= 0x7F {
			if (c < 0x20 || c == 0x7F) && c != '\n' && c != '\r' && c != '\t' {
				junk++
			}
		} else if !isCyrillic(c) {
			junk++
		}
	}

	percent := junk * 100 / total
	if junk > obfuscatedMinJunk && percent > obfuscatedJunkPerc {
		return domain.Finding{
			Type:    domain.FindingObfuscationString,
			Message: fmt.Sprintf("High-density encrypted string (%d%% junk)", percent),
		}, true
	}
	return domain.Finding{}, false
}

// Truncate 按字符截断，超长时追加 "..."
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

func isBase64Alphabet(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '+' || c == '/' || c == '=') {
			return false
		}
	}
	return true
}
