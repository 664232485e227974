package heuristics

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func junkString(junk, clean int) string {
	return strings.Repeat("\x01", junk) + strings.Repeat("a", clean)
}

// TestCheckObfuscatedString 测试高密度垃圾字符串
func TestCheckObfuscatedString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"90 Percent Junk", junkString(45, 5), true},
		{"50 Percent Junk", junkString(25, 25), false},
		{"Too Short", junkString(39, 0), false},
		{"Junk Count Not Above 30", junkString(30, 10), false},
		{"Whitespace Controls Are Not Junk", strings.Repeat("\n\r\t", 20), false},
		{"Cyrillic Is Not Junk", strings.Repeat("Ж", 50), false},
		{"CJK Is Junk", strings.Repeat("中", 50), true},
		{"Plain Text", strings.Repeat("hello world ", 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			finding, ok := CheckObfuscatedString(tt.input)
			assert.Equal(t, tt.expected, ok)
			if ok {
				assert.Equal(t, domain.FindingObfuscationString, finding.Type)
				assert.Contains(t, finding.Message, "% junk")
			}
		})
	}
}

// TestCheckString_Webhook 测试 Discord Webhook
func TestCheckString_Webhook(t *testing.T) {
	url := "https://discord.com/api/webhooks/123456789012345678/AbCdEf-GhIjKl_MnOpQrStUvWxYz0123456789abcdefghijklmnop"
	findings := CheckString("send(" + url + ")")
	require.Len(t, findings, 1)
	assert.Equal(t, domain.FindingDiscordWebhook, findings[0].Type)
	assert.LessOrEqual(t, len([]rune(findings[0].Message)), 53)
	assert.True(t, strings.HasPrefix(findings[0].Message, "https://discord.com/api/webhooks/"))

	for _, variant := range []string{
		"https://ptb.discord.com/api/webhooks/1/abc",
		"https://canary.discordapp.com/api/webhooks/42/x_y-z",
		"http://discordapp.com/api/webhooks/9/token",
	} {
		findings := CheckString(variant)
		assert.Equal(t, 1, findings.CountByType()[domain.FindingDiscordWebhook], variant)
	}

	assert.Empty(t, CheckString("https://discord.com/invite/abcdef"))
}

// TestStringAnalyzer_Candidates 测试候选过滤
func TestStringAnalyzer_Candidates(t *testing.T) {
	a := NewStringAnalyzer(NewSafeStringMemo(), 0)

	longBase64 := strings.Repeat("QUJD", 10)
	literals := []string{
		"",
		"short",
		"abcdef",
		longBase64,
		longBase64 + " with space",
		strings.Repeat("x", 40) + "!",
	}

	candidates := a.Candidates(literals)
	assert.Equal(t, []string{"abcdef", longBase64 + " with space", strings.Repeat("x", 40) + "!"}, candidates)
}

// TestStringAnalyzer_CandidateCap 候选数量上限且保持顺序
func TestStringAnalyzer_CandidateCap(t *testing.T) {
	a := NewStringAnalyzer(NewSafeStringMemo(), DefaultMaxCandidates)

	literals := make([]string, 0, 800)
	for i := 0; i < 800; i++ {
		literals = append(literals, fmt.Sprintf("literal-%04d", i))
	}

	candidates := a.Candidates(literals)
	require.Len(t, candidates, DefaultMaxCandidates)
	assert.Equal(t, "literal-0000", candidates[0])
	assert.Equal(t, "literal-0499", candidates[len(candidates)-1])
}

// TestStringAnalyzer_Analyze 并行检测与安全字符串缓存
func TestStringAnalyzer_Analyze(t *testing.T) {
	memo := NewSafeStringMemo()
	a := NewStringAnalyzer(memo, 0)

	bad := junkString(45, 5)
	safe := "just a harmless sentence"
	findings := a.Analyze([]string{bad, safe, "https://discord.com/api/webhooks/1/tok"})

	counts := findings.CountByType()
	assert.Equal(t, 1, counts[domain.FindingObfuscationString])
	assert.Equal(t, 1, counts[domain.FindingDiscordWebhook])

	assert.True(t, memo.Contains(safe))
	assert.False(t, memo.Contains(bad), "strings with findings must not be memoized")

	// 已缓存的安全字符串不再成为候选
	assert.NotContains(t, a.Candidates([]string{safe}), safe)
}

// TestStringAnalyzer_Deterministic 重复检测结果的多重集合一致
func TestStringAnalyzer_Deterministic(t *testing.T) {
	literals := []string{junkString(45, 5), junkString(40, 2), strings.Repeat("中", 60), "plain old text here"}

	first := NewStringAnalyzer(NewSafeStringMemo(), 0).Analyze(literals)
	second := NewStringAnalyzer(NewSafeStringMemo(), 0).Analyze(literals)
	assert.ElementsMatch(t, first, second)
	assert.Len(t, first, 3)
}

// TestSafeStringMemo_Concurrent 并发读写
func TestSafeStringMemo_Concurrent(t *testing.T) {
	memo := NewSafeStringMemo()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := fmt.Sprintf("s-%d", j)
				memo.Add(s)
				_ = memo.Contains(s)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, memo.Len())
}

// TestTruncate 测试截断
func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcde...", Truncate("abcdefgh", 5))
	assert.Equal(t, "ЖЖ...", Truncate("ЖЖЖЖ", 2))
}
