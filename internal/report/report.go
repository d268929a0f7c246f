package report

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"

	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/translate"
)

// Format determines how summaries are printed.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// IssueCode classifies translation limitations and skips.
type IssueCode = diagnostics.Code

// Issue captures a specific translation warning/error.
type Issue = diagnostics.Issue

// MappingResult is the per-mapping migration outcome.
type MappingResult struct {
	Mapping     string                  `json:"mapping"`
	OutputPaths []string                `json:"output_paths,omitempty"`
	Translated  bool                    `json:"translated"`
	Stages      []translate.StageStatus `json:"stages,omitempty"`
	Issues      []Issue                 `json:"issues,omitempty"`
}

// Summary aggregates outcomes across the full workbook migration. RunID
// ties the summary to the artifacts written during the same run.
type Summary struct {
	RunID      string            `json:"run_id"`
	Total      int               `json:"total"`
	Translated int               `json:"translated"`
	Partial    int               `json:"partial"`
	Skipped    int               `json:"skipped"`
	ByCode     map[IssueCode]int `json:"by_code,omitempty"`
	Mappings   []MappingResult   `json:"mappings,omitempty"`
}

// NewSummary allocates a summary with a fresh run identifier.
func NewSummary() *Summary {
	return &Summary{RunID: uuid.NewString()}
}

// HasErrors reports whether the summary contains any error-severity issue.
func (s *Summary) HasErrors() bool {
	for _, mapping := range s.Mappings {
		if diagnostics.HasErrors(mapping.Issues) {
			return true
		}
	}

	return false
}

// Add records one mapping result into the summary.
func (s *Summary) Add(result MappingResult) {
	s.Total++
	if s.ByCode == nil {
		s.ByCode = make(map[IssueCode]int)
	}

	for _, issue := range result.Issues {
		s.ByCode[issue.Code]++
	}

	s.Mappings = append(s.Mappings, result)

	switch {
	case !result.Translated:
		s.Skipped++
	case degraded(result):
		s.Partial++
	default:
		s.Translated++
	}
}

// degraded reports a translated mapping that still needs manual work.
func degraded(result MappingResult) bool {
	for _, stage := range result.Stages {
		if stage.Status != translate.StatusTranslated {
			return true
		}
	}

	return len(result.Issues) > 0
}

// Hints returns prioritized extension opportunities inferred from issues.
func (s *Summary) Hints() []string {
	hintsByCode := map[IssueCode]string{
		diagnostics.CodeStageKindUnsupported: "Add translation rules for the remaining transformation kinds.",
		diagnostics.CodeFunctionUnmapped:     "Extend the function table to cover more expression functions.",
		diagnostics.CodeDatatypeUnmapped:     "Extend the datatype table to cover the remaining source datatypes.",
		diagnostics.CodePartialConfiguration: "Review SQL overrides and row policies carried over for manual completion.",
		diagnostics.CodeBrokenConnector:      "Reroute connectors around untranslated stages before deployment.",
		diagnostics.CodeMissingUpstreamSorter: "Insert a sorter before stages configured for sorted input, " +
			"or clear the sorted-input flag.",
	}

	type pair struct {
		code  IssueCode
		count int
	}
	var ranked []pair
	for code, count := range s.ByCode {
		if _, ok := hintsByCode[code]; !ok {
			continue
		}
		ranked = append(ranked, pair{code: code, count: count})
	}

	slices.SortFunc(ranked, func(a, b pair) int {
		if a.count == b.count {
			if a.code < b.code {
				return -1
			}
			if a.code > b.code {
				return 1
			}
			return 0
		}
		if a.count > b.count {
			return -1
		}
		return 1
	})

	hints := make([]string, 0, len(ranked))
	for _, entry := range ranked {
		hints = append(hints, hintsByCode[entry.code])
	}

	return hints
}

// Write prints the summary in the requested format.
func (s *Summary) Write(w io.Writer, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(s)
	case FormatText, "":
		writef := func(format string, args ...any) error {
			if _, err := fmt.Fprintf(w, format, args...); err != nil {
				return err
			}
			return nil
		}

		if err := writef("Mapping migration summary (run %s)\n", s.RunID); err != nil {
			return err
		}
		if err := writef("  total mappings: %d\n", s.Total); err != nil {
			return err
		}
		if err := writef("  translated: %d\n", s.Translated); err != nil {
			return err
		}
		if err := writef("  partial: %d\n", s.Partial); err != nil {
			return err
		}
		if err := writef("  skipped: %d\n", s.Skipped); err != nil {
			return err
		}

		if len(s.ByCode) > 0 {
			if err := writef("\nIssues by code:\n"); err != nil {
				return err
			}
			codes := make([]IssueCode, 0, len(s.ByCode))
			for code := range s.ByCode {
				codes = append(codes, code)
			}
			slices.Sort(codes)
			for _, code := range codes {
				if err := writef("  - %s: %d\n", code, s.ByCode[code]); err != nil {
					return err
				}
			}
		}

		hints := s.Hints()
		if len(hints) > 0 {
			if err := writef("\nFollow-up opportunities:\n"); err != nil {
				return err
			}
			for _, hint := range hints {
				if err := writef("  - %s\n", hint); err != nil {
					return err
				}
			}
		}

		return nil
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}
