package reconcile_test

import (
	"reflect"
	"strings"
	"testing"

	"subtrans/internal/reconcile"
	"subtrans/internal/subtitle"
)

func batch() []subtitle.Line {
	return []subtitle.Line{
		{Number: 1, Text: "Hello there."},
		{Number: 2, Text: "We need to talk."},
		{Number: 3, Text: "It's about yesterday."},
	}
}

func newReconciler() *reconcile.Reconciler {
	return reconcile.New(reconcile.Config{MinLengthRatio: 0.2, MaxLengthRatio: 5.0})
}

const fullResponse = `#1
Original>
Hello there.
Translation>
Hola.

#2
Original>
We need to talk.
Translation>
Tenemos que hablar.

#3
Original>
It's about yesterday.
Translation>
Es sobre lo de ayer.

<summary>A tense greeting.</summary>
<scene>Two people meet to discuss yesterday.</scene>`

func TestReconcileFullResponse(t *testing.T) {
	report := newReconciler().Reconcile(batch(), fullResponse)

	if report.Desync {
		t.Fatalf("unexpected desync: %v", report.DesyncReasons)
	}
	if len(report.Matched) != 3 || len(report.Missing) != 0 || len(report.Unexpected) != 0 {
		t.Fatalf("matched=%d missing=%d unexpected=%d", len(report.Matched), len(report.Missing), len(report.Unexpected))
	}
	if report.Matched[1].Text != "Tenemos que hablar." {
		t.Fatalf("line 2 text = %q", report.Matched[1].Text)
	}
	if report.Summary != "A tense greeting." {
		t.Fatalf("summary = %q", report.Summary)
	}
	if report.Scene != "Two people meet to discuss yesterday." {
		t.Fatalf("scene = %q", report.Scene)
	}
	if report.Pattern != "marked-blocks" {
		t.Fatalf("pattern = %q", report.Pattern)
	}
}

func TestReconcileMissingLineFlagsDesync(t *testing.T) {
	response := `#1
Original>
Hello there.
Translation>
Hola.

#3
Original>
It's about yesterday.
Translation>
Es sobre lo de ayer.`

	report := newReconciler().Reconcile(batch(), response)

	if !report.Desync {
		t.Fatal("expected desync for missing line")
	}
	if !reflect.DeepEqual(report.Missing, []int{2}) {
		t.Fatalf("missing = %v, want [2]", report.Missing)
	}
	if len(report.Matched) != 2 {
		t.Fatalf("matched translations must be kept, got %d", len(report.Matched))
	}
}

func TestReconcileUnexpectedIndexIgnored(t *testing.T) {
	response := fullResponse + `

#99
Original>
Bogus.
Translation>
Falso.`

	report := newReconciler().Reconcile(batch(), response)
	if !reflect.DeepEqual(report.Unexpected, []int{99}) {
		t.Fatalf("unexpected = %v, want [99]", report.Unexpected)
	}
	if report.Desync {
		t.Fatal("unexpected indices alone must not desync a fully matched batch")
	}
}

func TestReconcileBareBlocks(t *testing.T) {
	response := `#1
Hola.

#2
Tenemos que hablar.

#3
Es sobre lo de ayer.`

	report := newReconciler().Reconcile(batch(), response)
	if report.Pattern != "bare-blocks" {
		t.Fatalf("pattern = %q", report.Pattern)
	}
	if report.Desync || len(report.Matched) != 3 {
		t.Fatalf("matched=%d desync=%v", len(report.Matched), report.Desync)
	}
}

func TestReconcileNumberedLines(t *testing.T) {
	response := `1: Hola.
2: Tenemos que hablar.
3: Es sobre lo de ayer.`

	report := newReconciler().Reconcile(batch(), response)
	if report.Pattern != "numbered-lines" {
		t.Fatalf("pattern = %q", report.Pattern)
	}
	if len(report.Matched) != 3 {
		t.Fatalf("matched = %d", len(report.Matched))
	}
}

func TestReconcileGarbageNeverPanics(t *testing.T) {
	for _, response := range []string{"", "   ", "I cannot translate this.", "#\n#\n#", strings.Repeat("x", 10000)} {
		report := newReconciler().Reconcile(batch(), response)
		if !report.ParseFailed() {
			t.Fatalf("expected parse failure for %q", response[:min(20, len(response))])
		}
		if !report.Desync {
			t.Fatal("nothing matched must imply desync")
		}
		if len(report.Missing) != 3 {
			t.Fatalf("missing = %v", report.Missing)
		}
	}
}

func TestReconcileIdempotent(t *testing.T) {
	r := newReconciler()
	first := r.Reconcile(batch(), fullResponse)
	second := r.Reconcile(batch(), fullResponse)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("reconciling the same response twice must produce identical reports")
	}
}

func TestReconcileLengthRatioDesync(t *testing.T) {
	response := `#1
Original>
Hello there.
Translation>
` + strings.Repeat("palabras ", 40) + `

#2
Original>
We need to talk.
Translation>
` + strings.Repeat("palabras ", 40) + `

#3
Original>
It's about yesterday.
Translation>
` + strings.Repeat("palabras ", 40)

	report := newReconciler().Reconcile(batch(), response)
	if !report.Desync {
		t.Fatal("expected desync for runaway length ratio")
	}
	if len(report.Matched) != 3 {
		t.Fatal("matched lines must survive a ratio desync")
	}
}

func TestReconcileValidationFlags(t *testing.T) {
	response := `#1
Original>
Hello there.
Translation>
Hello there.

#2
Original>
We need to talk.
Translation>
Tenemos que hablar.

#3
Original>
It's about yesterday.
Translation>
Es sobre lo de ayer.`

	report := newReconciler().Reconcile(batch(), response)
	if report.Desync {
		t.Fatalf("validation issues alone must not desync: %v", report.DesyncReasons)
	}
	if !report.HasValidationIssues() {
		t.Fatal("expected an echo flag on line 1")
	}
	if len(report.Matched[0].ValidationIssues) == 0 {
		t.Fatalf("line 1 should carry the issue, got %#v", report.Matched)
	}
	if len(report.Matched[1].ValidationIssues) != 0 {
		t.Fatalf("line 2 should be clean, got %v", report.Matched[1].ValidationIssues)
	}
}

func TestReconcileMergedInference(t *testing.T) {
	// Line 1's block carries roughly the text of lines 1 and 2; line 2 absent.
	response := `#1
Original>
Hello there.
Translation>
Hola. Tenemos que hablar de algo importante.

#3
Original>
It's about yesterday.
Translation>
Es sobre lo de ayer.`

	report := newReconciler().Reconcile(batch(), response)
	if !report.Desync {
		t.Fatal("expected desync")
	}
	if !reflect.DeepEqual(report.Merged, []int{1}) {
		t.Fatalf("merged = %v, want [1]", report.Merged)
	}
}

func TestReconcileTagsExtractedDespiteDesync(t *testing.T) {
	response := `#1
Original>
Hello there.
Translation>
Hola.

<summary>Partial work.</summary>
<scene>Still the meeting.</scene>`

	report := newReconciler().Reconcile(batch(), response)
	if !report.Desync {
		t.Fatal("expected desync")
	}
	if report.Summary != "Partial work." || report.Scene != "Still the meeting." {
		t.Fatalf("tags not extracted: summary=%q scene=%q", report.Summary, report.Scene)
	}
}

func TestReportErrors(t *testing.T) {
	report := newReconciler().Reconcile(batch(), "#1\nOriginal>\nHello there.\nTranslation>\nHola.")
	errs := report.Errors()
	if len(errs) == 0 {
		t.Fatal("expected diagnostics")
	}
	joined := strings.Join(errs, "; ")
	if !strings.Contains(joined, "line 2 missing") || !strings.Contains(joined, "line 3 missing") {
		t.Fatalf("diagnostics = %v", errs)
	}
}
