package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/translate"
)

func TestSummaryAdd(t *testing.T) {
	t.Parallel()

	summary := NewSummary()
	if summary.RunID == "" {
		t.Fatal("expected run ID")
	}

	summary.Add(MappingResult{
		Mapping:    "m_clean",
		Translated: true,
		Stages:     []translate.StageStatus{{Name: "EXP", Status: translate.StatusTranslated}},
	})
	summary.Add(MappingResult{
		Mapping:    "m_partial",
		Translated: true,
		Stages:     []translate.StageStatus{{Name: "LKP", Status: translate.StatusPartial}},
		Issues: []Issue{
			diagnostics.New(diagnostics.CodePartialConfiguration, "LKP", "no cache policy"),
		},
	})
	summary.Add(MappingResult{
		Mapping: "m_broken",
		Issues: []Issue{
			diagnostics.New(diagnostics.CodeCycleDetected, "A", "cycle"),
		},
	})

	if summary.Total != 3 {
		t.Fatalf("Total = %d", summary.Total)
	}
	if summary.Translated != 1 {
		t.Fatalf("Translated = %d", summary.Translated)
	}
	if summary.Partial != 1 {
		t.Fatalf("Partial = %d", summary.Partial)
	}
	if summary.Skipped != 1 {
		t.Fatalf("Skipped = %d", summary.Skipped)
	}
	if summary.ByCode[diagnostics.CodeCycleDetected] != 1 {
		t.Fatalf("ByCode = %v", summary.ByCode)
	}
	if !summary.HasErrors() {
		t.Fatal("expected errors")
	}
}

func TestSummaryHints(t *testing.T) {
	t.Parallel()

	summary := NewSummary()
	summary.Add(MappingResult{
		Mapping:    "m",
		Translated: true,
		Issues: []Issue{
			diagnostics.New(diagnostics.CodeFunctionUnmapped, "EXP", "MD5"),
			diagnostics.New(diagnostics.CodeFunctionUnmapped, "EXP", "CRC32"),
			diagnostics.New(diagnostics.CodeStageKindUnsupported, "SP", "stored procedure"),
		},
	})

	hints := summary.Hints()
	if len(hints) != 2 {
		t.Fatalf("hints = %v", hints)
	}
	// Highest count ranks first.
	if !strings.Contains(hints[0], "function table") {
		t.Fatalf("hints[0] = %q", hints[0])
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	summary := NewSummary()
	summary.Add(MappingResult{Mapping: "m", Translated: true})

	var buffer bytes.Buffer
	if err := summary.Write(&buffer, FormatText); err != nil {
		t.Fatalf("Write: %v", err)
	}

	output := buffer.String()
	if !strings.Contains(output, "total mappings: 1") {
		t.Fatalf("output = %s", output)
	}
	if !strings.Contains(output, "translated: 1") {
		t.Fatalf("output = %s", output)
	}
	if !strings.Contains(output, summary.RunID) {
		t.Fatalf("output = %s", output)
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	summary := NewSummary()
	summary.Add(MappingResult{
		Mapping: "m",
		Issues: []Issue{
			diagnostics.New(diagnostics.CodeCycleDetected, "A", "cycle"),
		},
	})

	var buffer bytes.Buffer
	if err := summary.Write(&buffer, FormatJSON); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buffer.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Skipped != 1 || decoded.RunID != summary.RunID {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	summary := NewSummary()
	if err := summary.Write(&bytes.Buffer{}, Format("xml")); err == nil {
		t.Fatal("expected error")
	}
}
