// Package scoring 将检测结果汇总为 1-10 的危险评分与说明
package scoring

import (
	"fmt"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
)

const (
	MinScore = 1
	MaxScore = 10
)

// 评分结论
const (
	VerdictMalware       = "STATUS: [!] OBFUSCATION + MALWARE FOUND"
	VerdictCertain       = "STATUS: [!] OBFUSCATION DETECTED (100%)"
	VerdictHigh          = "STATUS: [!] OBFUSCATION DETECTED (HIGH)"
	VerdictUncertain     = "STATUS: [?] OBFUSCATION FOUND (50/50)"
	VerdictLikelyClean   = "STATUS: [~] LIKELY NO OBFUSCATION"
	VerdictNoObfuscation = "STATUS: [v] NO OBFUSCATION FOUND"
)

var summaryFormats = map[domain.FindingType]string{
	domain.FindingDiscordWebhook:        "CRITICAL: Found %d Discord webhook(s)!",
	domain.FindingObfuscationUnicode:    "Detected %d unicode obfuscated names.",
	domain.FindingObfuscationRandomName: "Detected %d random/obfuscated names.",
	domain.FindingObfuscationString:     "Detected %d obfuscated strings.",
}

// Score 计算危险评分，结果与检测结果的顺序无关
func Score(findings domain.Findings) int {
	if len(findings) == 0 {
		return MinScore
	}

	counts := findings.CountByType()
	if counts[domain.FindingDiscordWebhook] > 0 {
		return MaxScore
	}

	total := 0
	for _, t := range domain.FindingTypes {
		contribution := counts[t] * t.BaseScore()
		if limit := t.MaxContribution(); contribution > limit {
			contribution = limit
		}
		total += contribution
	}

	return clamp(total)
}

// Verdict 按评分区间给出结论
func Verdict(score int) string {
	switch {
	case score >= 10:
		return VerdictMalware
	case score >= 8:
		return VerdictCertain
	case score >= 5:
		return VerdictHigh
	case score >= 3:
		return VerdictUncertain
	case score == 2:
		return VerdictLikelyClean
	default:
		return VerdictNoObfuscation
	}
}

// Explain 生成说明：首行为结论，之后按固定类型顺序输出每类数量
func Explain(score int, findings domain.Findings) []string {
	lines := []string{Verdict(score)}

	counts := findings.CountByType()
	for _, t := range domain.FindingTypes {
		if n := counts[t]; n > 0 {
			lines = append(lines, fmt.Sprintf(summaryFormats[t], n))
		}
	}
	return lines
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
