package reconcile

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"subtrans/internal/subtitle"
)

// LineResult is one reconciled translation.
type LineResult struct {
	Number int
	Text   string
	// ValidationIssues lists quality flags for the line. Non-fatal.
	ValidationIssues []string
}

// Report is the full outcome of reconciling one response against one batch.
type Report struct {
	Matched    []LineResult
	Missing    []int
	Unexpected []int
	// Merged lists matched line numbers whose block appears to also cover
	// one or more following missing lines.
	Merged []int

	Desync        bool
	DesyncReasons []string

	// Summary and Scene hold the trailing tag payloads, extracted even when
	// the batch is desynchronized.
	Summary string
	Scene   string

	// Pattern names the extraction pattern that produced the matches, empty
	// when nothing matched.
	Pattern string
}

// ParseFailed reports that no extraction pattern yielded any line.
func (r Report) ParseFailed() bool {
	return r.Pattern == ""
}

// HasValidationIssues reports whether any matched line carries a flag.
func (r Report) HasValidationIssues() bool {
	for _, m := range r.Matched {
		if len(m.ValidationIssues) > 0 {
			return true
		}
	}
	return false
}

// Errors renders the report's problems as diagnostic strings for batch state.
func (r Report) Errors() []string {
	var out []string
	if r.ParseFailed() {
		out = append(out, "no extraction pattern matched the response")
	}
	for _, reason := range r.DesyncReasons {
		out = append(out, reason)
	}
	for _, number := range r.Missing {
		out = append(out, fmt.Sprintf("line %d missing from response", number))
	}
	for _, number := range r.Unexpected {
		out = append(out, fmt.Sprintf("unexpected line %d in response", number))
	}
	for _, number := range r.Merged {
		out = append(out, fmt.Sprintf("line %d appears to merge following lines", number))
	}
	for _, m := range r.Matched {
		for _, issue := range m.ValidationIssues {
			out = append(out, fmt.Sprintf("line %d: %s", m.Number, issue))
		}
	}
	return out
}

// Config tunes desync detection.
type Config struct {
	// MinLengthRatio and MaxLengthRatio bound the translated-to-source
	// character-length ratio for the whole batch.
	MinLengthRatio float64
	MaxLengthRatio float64
}

// Reconciler parses responses for batches.
type Reconciler struct {
	minRatio float64
	maxRatio float64
}

// New constructs a Reconciler. Non-positive bounds fall back to permissive
// defaults.
func New(cfg Config) *Reconciler {
	minRatio := cfg.MinLengthRatio
	maxRatio := cfg.MaxLengthRatio
	if minRatio <= 0 {
		minRatio = 0.2
	}
	if maxRatio <= 0 {
		maxRatio = 5.0
	}
	return &Reconciler{minRatio: minRatio, maxRatio: maxRatio}
}

// Reconcile maps a raw response onto the batch's lines. It is deterministic:
// the same response and batch always produce the same report.
func (r *Reconciler) Reconcile(lines []subtitle.Line, response string) Report {
	report := Report{}

	body := response
	report.Summary, body = extractTag(body, "summary")
	report.Scene, body = extractTag(body, "scene")

	extracted, pattern := extract(body)
	report.Pattern = pattern

	expected := make(map[int]subtitle.Line, len(lines))
	for _, line := range lines {
		expected[line.Number] = line
	}

	seen := map[int]string{}
	for _, e := range extracted {
		if _, ok := expected[e.number]; !ok {
			report.Unexpected = append(report.Unexpected, e.number)
			continue
		}
		// Last block for a number wins, matching re-reconciliation rules.
		seen[e.number] = e.text
	}
	sort.Ints(report.Unexpected)

	for _, line := range lines {
		text, ok := seen[line.Number]
		if !ok {
			report.Missing = append(report.Missing, line.Number)
			continue
		}
		report.Matched = append(report.Matched, LineResult{
			Number:           line.Number,
			Text:             text,
			ValidationIssues: validate(line, text),
		})
	}

	report.Merged = inferMerged(lines, seen, report.Missing)

	if len(report.Matched) != len(lines) {
		report.Desync = true
		report.DesyncReasons = append(report.DesyncReasons,
			fmt.Sprintf("matched %d of %d lines", len(report.Matched), len(lines)))
	}
	if reason, ok := r.lengthRatioOff(lines, report.Matched); ok {
		report.Desync = true
		report.DesyncReasons = append(report.DesyncReasons, reason)
	}

	return report
}

func (r *Reconciler) lengthRatioOff(lines []subtitle.Line, matched []LineResult) (string, bool) {
	if len(matched) == 0 {
		return "", false
	}
	byNumber := make(map[int]subtitle.Line, len(lines))
	for _, line := range lines {
		byNumber[line.Number] = line
	}
	sourceLen, translatedLen := 0, 0
	for _, m := range matched {
		sourceLen += utf8.RuneCountInString(byNumber[m.Number].Text)
		translatedLen += utf8.RuneCountInString(m.Text)
	}
	if sourceLen == 0 {
		return "", false
	}
	ratio := float64(translatedLen) / float64(sourceLen)
	if ratio < r.minRatio || ratio > r.maxRatio {
		return fmt.Sprintf("translated/source length ratio %.2f outside [%.2f, %.2f]", ratio, r.minRatio, r.maxRatio), true
	}
	return "", false
}

// validate runs the lightweight per-line quality checks.
func validate(line subtitle.Line, text string) []string {
	var issues []string
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		issues = append(issues, "empty translation")
		return issues
	}
	source := strings.TrimSpace(line.Text)
	if utf8.RuneCountInString(source) > 3 && strings.EqualFold(normalizeSpace(source), normalizeSpace(trimmed)) {
		issues = append(issues, "translation echoes the source text")
	}
	return issues
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// inferMerged flags matched lines whose translation looks long enough to
// cover the missing lines immediately after them.
func inferMerged(lines []subtitle.Line, seen map[int]string, missing []int) []int {
	if len(missing) == 0 {
		return nil
	}
	missingSet := make(map[int]bool, len(missing))
	for _, number := range missing {
		missingSet[number] = true
	}
	byNumber := make(map[int]subtitle.Line, len(lines))
	for _, line := range lines {
		byNumber[line.Number] = line
	}

	var merged []int
	for i := 0; i < len(lines)-1; i++ {
		number := lines[i].Number
		text, matchedHere := seen[number]
		if !matchedHere || !missingSet[lines[i+1].Number] {
			continue
		}
		combined := utf8.RuneCountInString(byNumber[number].Text)
		for j := i + 1; j < len(lines) && missingSet[lines[j].Number]; j++ {
			combined += utf8.RuneCountInString(byNumber[lines[j].Number].Text)
		}
		// The block plausibly concatenates its neighbours when its length is
		// closer to the combined source span than to its own line.
		if combined > 0 && utf8.RuneCountInString(text)*2 > combined {
			merged = append(merged, number)
		}
	}
	return merged
}
