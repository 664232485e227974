package heuristics

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jar-analysis/jar-analysis-go/internal/classfile"
	"github.com/jar-analysis/jar-analysis-go/internal/domain"
)

// 命名检测阈值
const (
	maxInterfacesChecked   = 5
	shortMemberNameLen     = 2
	massiveShortMembers    = 10
	combinedShortMembers   = 3
	unicodeMinNameLen      = 5
	unicodeMinJunk         = 10
	unicodeJunkPercent     = 95
	dominantCharPercent    = 70
	lowVarietyMinLen       = 10
	lowVarietyMaxDistinct  = 3
	mixedCaseMinLen        = 10
	mixedCaseMinEachCase   = 4
	mixedCaseMaxVowelRatio = 0.15
	digitHeavyMaxLen       = 20
)

// NameAnalyzer 类名/父类/接口/成员命名检测器，纯函数，无 I/O
type NameAnalyzer struct {
	keywords []string
}

// NewNameAnalyzer 创建命名检测器，ignored 中的关键字不参与可疑关键字检查
func NewNameAnalyzer(keywords []string, ignored []string) *NameAnalyzer {
	skip := make(map[string]struct{}, len(ignored))
	for _, k := range ignored {
		skip[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}

	active := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(k)
		if _, ok := skip[k]; ok {
			continue
		}
		active = append(active, k)
	}

	return &NameAnalyzer{keywords: active}
}

// Keywords 当前生效的可疑关键字
func (a *NameAnalyzer) Keywords() []string {
	return a.keywords
}

// Analyze 检测类结构中的命名混淆
func (a *NameAnalyzer) Analyze(details *classfile.ClassDetails) domain.Findings {
	var findings domain.Findings

	if !IsLibraryName(details.ClassName) {
		findings = append(findings, a.checkRandomNames(details)...)
	}

	a.checkUnicode(details.ClassName, "Class Name", &findings)
	if details.SuperclassName != "java/lang/Object" {
		a.checkUnicode(details.SuperclassName, "Superclass Name", &findings)
	}
	for _, iface := range firstN(details.Interfaces, maxInterfacesChecked) {
		a.checkUnicode(iface, "Interface Name", &findings)
	}

	// 关键字检查不受白名单影响：被篡改的库依然能被发现
	if keyword, ok := a.matchKeyword(details.ClassName); ok {
		findings = append(findings, domain.Finding{
			Type:    domain.FindingObfuscationString,
			Message: fmt.Sprintf("Highly suspicious keyword '%s' found in package path", keyword),
		})
	}

	return findings
}

func (a *NameAnalyzer) checkRandomNames(details *classfile.ClassDetails) domain.Findings {
	var findings domain.Findings

	// 每个类最多一条路径段命中
	for _, part := range strings.Split(details.ClassName, "/") {
		if IsKnownShortToken(part) {
			continue
		}
		if IsRandomName(part) {
			findings = append(findings, domain.Finding{
				Type:    domain.FindingObfuscationRandomName,
				Message: fmt.Sprintf("Obfuscated name pattern: '%s'", Truncate(part, 20)),
			})
			break
		}
	}

	shortNames := 0
	for _, m := range details.Methods {
		if !m.IsInitializer() && utf8.RuneCountInString(m.Name) <= shortMemberNameLen {
			shortNames++
		}
	}
	for _, f := range details.Fields {
		if utf8.RuneCountInString(f.Name) <= shortMemberNameLen {
			shortNames++
		}
	}

	simple := classfile.SimpleName(details.ClassName)
	if shortNames >= massiveShortMembers {
		findings = append(findings, domain.Finding{
			Type:    domain.FindingObfuscationRandomName,
			Message: fmt.Sprintf("Massive member obfuscation: %d short names", shortNames),
		})
	} else if shortNames >= combinedShortMembers && utf8.RuneCountInString(simple) <= shortMemberNameLen {
		findings = append(findings, domain.Finding{
			Type:    domain.FindingObfuscationRandomName,
			Message: "Class and members use obfuscated naming pattern",
		})
	}

	if super := details.SuperclassName; super != "" && super != "java/lang/Object" && !IsLibraryName(super) {
		superSimple := classfile.SimpleName(super)
		if IsRandomName(superSimple) {
			findings = append(findings, domain.Finding{
				Type:    domain.FindingObfuscationRandomName,
				Message: fmt.Sprintf("Superclass Name '%s' (random naming pattern)", Truncate(superSimple, 20)),
			})
		}
	}

	for _, iface := range firstN(details.Interfaces, maxInterfacesChecked) {
		if IsLibraryName(iface) {
			continue
		}
		ifaceSimple := classfile.SimpleName(iface)
		if IsRandomName(ifaceSimple) {
			findings = append(findings, domain.Finding{
				Type:    domain.FindingObfuscationRandomName,
				Message: fmt.Sprintf("Interface Name '%s' (random naming pattern)", Truncate(ifaceSimple, 20)),
			})
		}
	}

	return findings
}

func (a *NameAnalyzer) checkUnicode(name, context string, findings *domain.Findings) {
	if name == "" {
		return
	}

	total := 0
	junk := 0
	for _, c := range name {
		total++
		if c > 0x7F && !isCyrillic(c) {
			junk++
		}
	}

	if total > unicodeMinNameLen && junk > unicodeMinJunk && junk*100/total > unicodeJunkPercent {
		*findings = append(*findings, domain.Finding{
			Type:    domain.FindingObfuscationUnicode,
			Message: fmt.Sprintf("%s '%s' (extreme unicode junk)", context, Truncate(name, 30)),
		})
	}
}

func (a *NameAnalyzer) matchKeyword(className string) (string, bool) {
	parts := strings.Split(strings.ToLower(className), "/")
	for _, keyword := range a.keywords {
		for _, part := range parts {
			if part == keyword {
				return keyword, true
			}
		}
	}
	return "", false
}

// IsRandomName 判断单个标识符是否像随机生成的名字。
// 含 '$' 的合成/内部类名永远不算随机
func IsRandomName(token string) bool {
	n := utf8.RuneCountInString(token)
	if n == 0 || strings.ContainsRune(token, '$') {
		return false
	}

	if n >= 5 {
		counts := make(map[rune]int, n)
		for _, c := range token {
			counts[c]++
		}
		for _, count := range counts {
			if count*100/n > dominantCharPercent {
				return true
			}
		}
		if len(counts) <= lowVarietyMaxDistinct && n >= lowVarietyMinLen {
			return true
		}
	}

	if strings.HasPrefix(token, "_") && n <= 3 {
		return true
	}

	if n <= 2 && isASCIIAlnum(token) {
		return true
	}

	if n >= mixedCaseMinLen {
		upper, lower, digits, vowels := 0, 0, 0, 0
		for _, c := range token {
			switch {
			case c >= 'A' && c <= 'Z':
				upper++
			case c >= 'a' && c <= 'z':
				lower++
			case c >= '0' && c <= '9':
				digits++
			}
			if strings.ContainsRune("aeiouyAEIOUY", c) {
				vowels++
			}
		}

		if upper > mixedCaseMinEachCase && lower > mixedCaseMinEachCase &&
			float64(vowels)/float64(n) < mixedCaseMaxVowelRatio {
			return true
		}
		if n < digitHeavyMaxLen && digits > n/2 {
			return true
		}
	}

	return false
}

func isASCIIAlnum(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isCyrillic(c rune) bool {
	return c >= 0x0400 && c <= 0x04FF
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
