package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
)

func repeat(t domain.FindingType, n int) domain.Findings {
	out := make(domain.Findings, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Finding{Type: t, Message: "m"})
	}
	return out
}

func concat(parts ...domain.Findings) domain.Findings {
	var out domain.Findings
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// TestScore 测试评分计算
func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		findings domain.Findings
		expected int
	}{
		{"Empty", nil, 1},
		{"Single Random Name", repeat(domain.FindingObfuscationRandomName, 1), 1},
		{"Random Name Capped", repeat(domain.FindingObfuscationRandomName, 20), 5},
		{"Two Strings", repeat(domain.FindingObfuscationString, 2), 4},
		{"Strings Capped", repeat(domain.FindingObfuscationString, 9), 8},
		{"Unicode Single", repeat(domain.FindingObfuscationUnicode, 1), 3},
		{"Unicode Capped", repeat(domain.FindingObfuscationUnicode, 5), 8},
		{"Sum Clamped", concat(repeat(domain.FindingObfuscationUnicode, 5), repeat(domain.FindingObfuscationString, 5)), 10},
		{"Mixed", concat(repeat(domain.FindingObfuscationRandomName, 2), repeat(domain.FindingObfuscationString, 1)), 4},
		{"Webhook Dominates", repeat(domain.FindingDiscordWebhook, 1), 10},
		{"Webhook With Others", concat(repeat(domain.FindingObfuscationRandomName, 1), repeat(domain.FindingDiscordWebhook, 1)), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.findings))
		})
	}
}

// TestScore_Bounds 任意组合的评分都在 [1,10]
func TestScore_Bounds(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		var findings domain.Findings
		n := r.Intn(30)
		for j := 0; j < n; j++ {
			findings = append(findings, domain.Finding{Type: domain.FindingTypes[r.Intn(len(domain.FindingTypes))]})
		}
		score := Score(findings)
		assert.GreaterOrEqual(t, score, MinScore)
		assert.LessOrEqual(t, score, MaxScore)
	}
}

// TestVerdict 测试结论区间
func TestVerdict(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{10, VerdictMalware},
		{9, VerdictCertain},
		{8, VerdictCertain},
		{7, VerdictHigh},
		{5, VerdictHigh},
		{4, VerdictUncertain},
		{3, VerdictUncertain},
		{2, VerdictLikelyClean},
		{1, VerdictNoObfuscation},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Verdict(tt.score), "score %d", tt.score)
	}
}

// TestExplain 说明按固定类型顺序输出，与发现顺序无关
func TestExplain(t *testing.T) {
	a := concat(
		repeat(domain.FindingObfuscationString, 2),
		repeat(domain.FindingObfuscationRandomName, 3),
		repeat(domain.FindingObfuscationUnicode, 1),
	)
	b := concat(
		repeat(domain.FindingObfuscationUnicode, 1),
		repeat(domain.FindingObfuscationRandomName, 3),
		repeat(domain.FindingObfuscationString, 2),
	)

	lines := Explain(Score(a), a)
	assert.Equal(t, []string{
		VerdictMalware,
		"Detected 1 unicode obfuscated names.",
		"Detected 3 random/obfuscated names.",
		"Detected 2 obfuscated strings.",
	}, lines)
	assert.Equal(t, lines, Explain(Score(b), b))
}

// TestExplain_Webhook 测试 Webhook 说明
func TestExplain_Webhook(t *testing.T) {
	findings := repeat(domain.FindingDiscordWebhook, 2)
	assert.Equal(t, []string{VerdictMalware, "CRITICAL: Found 2 Discord webhook(s)!"}, Explain(Score(findings), findings))
}

// TestExplain_Empty 无检测结果时只有结论
func TestExplain_Empty(t *testing.T) {
	assert.Equal(t, []string{VerdictNoObfuscation}, Explain(Score(nil), nil))
}
