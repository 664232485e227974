// Package report 把扫描结果转换为外部报告格式
package report

import (
	"fmt"
	"io"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/scoring"
)

const (
	toolName = "jarscan"
	toolURI  = "https://github.com/jar-analysis/jar-analysis-go"

	// RuleCustomJVM 整个 JAR 级别的非标准类文件告警
	RuleCustomJVM = "custom_jvm_loader"
)

var ruleDescriptions = map[domain.FindingType]string{
	domain.FindingDiscordWebhook:        "Discord webhook URL embedded in a class constant pool (data exfiltration channel)",
	domain.FindingObfuscationUnicode:    "Class, superclass or interface name made of unicode junk characters",
	domain.FindingObfuscationRandomName: "Randomized identifiers typical of obfuscators",
	domain.FindingObfuscationString:     "High-density encrypted or packed string literal, or a suspicious package keyword",
}

// WriteSARIF 输出 SARIF 2.1.0 报告，每条检测结果对应一个 result
func WriteSARIF(w io.Writer, reports []*domain.JarReport) error {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, t := range domain.FindingTypes {
		run.AddRule(string(t)).
			WithDescription(ruleDescriptions[t]).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: level(t)})
	}
	run.AddRule(RuleCustomJVM).
		WithDescription("Archive contains class files without the standard magic number; they only load on a patched JVM").
		WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: "error"})

	for _, jarReport := range reports {
		for _, r := range jarReport.Results {
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(entryURI(jarReport.JarPath, r.FilePath))),
			)
			for _, m := range r.Matches {
				result := sarif.NewRuleResult(string(m.Type)).
					WithMessage(sarif.NewTextMessage(fmt.Sprintf("%s (danger score %d/10: %s)", m.Message, r.DangerScore, scoring.Verdict(r.DangerScore)))).
					WithLevel(level(m.Type)).
					WithLocations([]*sarif.Location{location})
				run.AddResult(result)
			}
		}

		if jarReport.CustomJVMIndicator {
			location := sarif.NewLocation().WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(jarReport.JarPath)),
			)
			result := sarif.NewRuleResult(RuleCustomJVM).
				WithMessage(sarif.NewTextMessage("Non-standard class files found; a custom JVM loader is required to run this archive")).
				WithLevel("error").
				WithLocations([]*sarif.Location{location})
			run.AddResult(result)
		}
	}

	sarifReport.AddRun(run)
	return sarifReport.PrettyWrite(w)
}

func entryURI(jarPath, entry string) string {
	return jarPath + "!/" + entry
}

func level(t domain.FindingType) string {
	switch t {
	case domain.FindingDiscordWebhook:
		return "error"
	case domain.FindingObfuscationUnicode, domain.FindingObfuscationString:
		return "warning"
	default:
		return "note"
	}
}
