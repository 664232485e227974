package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jar-analysis/jar-analysis-go/internal/domain"
	"github.com/jar-analysis/jar-analysis-go/internal/report"
	"github.com/jar-analysis/jar-analysis-go/internal/scoring"
)

// 输出格式
const (
	formatText  = "text"
	formatJSON  = "json"
	formatSARIF = "sarif"
)

type scanFlags struct {
	format  string
	save    bool
	include []string
	exclude []string
}

func newScanCmd(a *app) *cobra.Command {
	var f scanFlags

	cmd := &cobra.Command{
		Use:   "scan <jar> [jar...]",
		Short: "Scan one or more JAR files and print a verdict per class",
		Long: `Scan walks every .class entry (and nested JARs one level deep), scores each class
from 1 to 10 and prints the classes at or above the report threshold.
A JAR that cannot be read is reported and the remaining JARs are still scanned.
Exit code 2 means at least one class was flagged or a non-standard class file was found;
otherwise exit code 1 means at least one JAR failed to scan.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch f.format {
			case formatText, formatJSON, formatSARIF:
			default:
				return fmt.Errorf("unknown output format %q (text, json, sarif)", f.format)
			}
			if len(f.include) > 0 {
				a.cfg.Scanner.IncludePatterns = f.include
			}
			if len(f.exclude) > 0 {
				a.cfg.Scanner.ExcludePatterns = f.exclude
			}
			return a.runScan(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.format, "format", "f", formatText, "output format: text, json, sarif")
	cmd.Flags().BoolVar(&f.save, "save", false, "persist reports to the configured database")
	cmd.Flags().StringSliceVar(&f.include, "include", nil, "only scan entries matching these wildcards")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, "skip entries matching these wildcards")

	return cmd
}

func (a *app) runScan(cmd *cobra.Command, jars []string, f scanFlags) error {
	c, err := a.build(nil, f.save)
	if err != nil {
		return err
	}
	threshold := c.scanner.Options().ReportThreshold
	out := cmd.OutOrStdout()

	reports := make([]*domain.JarReport, 0, len(jars))
	flagged := false
	failed := 0
	for _, path := range jars {
		jarReport, err := c.service.ScanJar(cmd.Context(), path)
		if err != nil {
			// 单个 JAR 失败不影响其余 JAR
			failed++
			a.logger.WithError(err).WithField("jar", path).Error("JAR scan failed")
			if f.format == formatText {
				color.New(color.FgRed).Fprintf(out, "%s\n  scan failed: %v\n\n", path, err)
			}
			continue
		}
		reports = append(reports, jarReport)
		if isFlagged(jarReport, threshold) {
			flagged = true
		}
		if f.format == formatText {
			printReport(out, jarReport, threshold)
		}
	}

	switch f.format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	case formatSARIF:
		if err := report.WriteSARIF(out, reports); err != nil {
			return err
		}
	default:
		if c.service.CustomJVMIndicator() {
			color.New(color.FgRed, color.Bold).Fprintln(out,
				"WARNING: non-standard class files found. These only load on a patched or custom JVM.")
		}
	}

	// 可疑结果优先于扫描失败
	if flagged {
		return errFlagged
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d JAR(s) failed to scan", failed, len(jars))
	}
	return nil
}

// isFlagged 存在达到阈值的类文件或本 JAR 含非标准类文件
func isFlagged(report *domain.JarReport, threshold int) bool {
	if report.CustomJVMIndicator {
		return true
	}
	for _, r := range report.Results {
		if r.DangerScore >= threshold {
			return true
		}
	}
	return false
}

func printReport(w io.Writer, report *domain.JarReport, threshold int) {
	bold := color.New(color.Bold)
	bold.Fprintf(w, "%s\n", report.JarPath)
	fmt.Fprintf(w, "  classes: %d  skipped: %d  errors: %d  max score: %d (%s)\n",
		report.ClassesScanned, report.ClassesSkipped, report.Errors,
		report.MaxDangerScore, scoring.Verdict(report.MaxDangerScore))

	for _, r := range report.Results {
		scoreColor(r.DangerScore, threshold).Fprintf(w, "  [%2d] %s\n", r.DangerScore, r.FilePath)
		for _, line := range r.DangerExplanation {
			fmt.Fprintf(w, "       %s\n", line)
		}
		for _, m := range r.Matches {
			fmt.Fprintf(w, "       - %s: %s\n", m.Type, m.Message)
		}
	}

	if report.CustomJVMIndicator {
		color.New(color.FgRed).Fprintln(w, "  contains non-standard class files (custom JVM loader)")
	}
	fmt.Fprintln(w)
}

func scoreColor(score, threshold int) *color.Color {
	switch {
	case score >= 8:
		return color.New(color.FgRed, color.Bold)
	case score >= threshold:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}
