package reason

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-errors/errors"

	"github.com/auditkit/logmine/pkg/hybrid"
)

//go:embed AGENTS.md
var agentsMD []byte

var errorPattern = regexp.MustCompile(`(?i)(error|warn|fatal|panic|exception|failed|timeout)`)

// BuildWorkspace writes pre-processed analysis files into dir: raw.log
// (the original lines), summary.txt (resolved templates with counts and
// samples), errors.txt (error-looking templates and failed lines), and
// AGENTS.md (instructions for the analysis agent).
func BuildWorkspace(dir string, lines []string, res *hybrid.Result) error {
	if err := writeRawLog(dir, lines); err != nil {
		return errors.Errorf("write raw.log: %w", err)
	}
	if err := writeSummary(dir, res); err != nil {
		return errors.Errorf("write summary.txt: %w", err)
	}
	if err := writeErrors(dir, res); err != nil {
		return errors.Errorf("write errors.txt: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "AGENTS.md"), agentsMD, 0o644); err != nil {
		return errors.Errorf("write AGENTS.md: %w", err)
	}
	return nil
}

func writeRawLog(dir string, lines []string) error {
	return os.WriteFile(
		filepath.Join(dir, "raw.log"),
		[]byte(strings.Join(lines, "\n")),
		0o644,
	)
}

func writeSummary(dir string, res *hybrid.Result) error {
	var buf strings.Builder
	buf.WriteString("# Log Template Summary\n\n")
	fmt.Fprintf(&buf, "structural=%d semantic=%d failed=%d avg_confidence=%.2f\n\n",
		res.Metadata.StructuralCount, res.Metadata.SemanticCount,
		res.Metadata.FailedCount, res.Metadata.AvgConfidence)

	for _, tmpl := range res.Templates {
		logs := res.TemplateLogs[tmpl]
		fmt.Fprintf(&buf, "%q — %d occurrences\n", tmpl, len(logs))
		for i, l := range logs {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&buf, "  sample %d: %s\n", i+1, l.Line)
		}
		buf.WriteString("\n")
	}

	return os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(buf.String()), 0o644)
}

func writeErrors(dir string, res *hybrid.Result) error {
	var buf strings.Builder
	buf.WriteString("# Error and Warning Patterns\n\n")
	hasContent := false

	for _, tmpl := range res.Templates {
		if !errorPattern.MatchString(tmpl) {
			continue
		}
		hasContent = true
		logs := res.TemplateLogs[tmpl]
		fmt.Fprintf(&buf, "%q — %d occurrences\n", tmpl, len(logs))
		for i, l := range logs {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&buf, "  sample %d: %s\n", i+1, l.Line)
		}
		buf.WriteString("\n")
	}

	failed := collectFailed(res, 50)
	if len(failed) > 0 {
		hasContent = true
		buf.WriteString("## Lines With Failed Classification\n\n")
		for _, line := range failed {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	if !hasContent {
		buf.WriteString("No error or warning patterns detected.\n")
	}

	return os.WriteFile(filepath.Join(dir, "errors.txt"), []byte(buf.String()), 0o644)
}

func collectFailed(res *hybrid.Result, limit int) []string {
	var failed []string
	for _, tmpl := range res.Templates {
		for _, l := range res.TemplateLogs[tmpl] {
			if l.Method != hybrid.MethodFailed {
				continue
			}
			failed = append(failed, l.Line)
			if len(failed) >= limit {
				return failed
			}
		}
	}
	return failed
}
