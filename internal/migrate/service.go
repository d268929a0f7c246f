// Package migrate wires the pipeline end to end: read the workbook,
// validate the graph, translate it, render artifacts, and write them.
package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pcmigrate/pc2adf/internal/adf"
	"github.com/pcmigrate/pc2adf/internal/adf/verify"
	"github.com/pcmigrate/pc2adf/internal/config"
	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/pcxml"
	"github.com/pcmigrate/pc2adf/internal/report"
	"github.com/pcmigrate/pc2adf/internal/rules"
	"github.com/pcmigrate/pc2adf/internal/translate"
	"github.com/pcmigrate/pc2adf/internal/validate"
)

var errOutputExists = errors.New("output file already exists")

// Run executes the workbook-to-dataflow migration.
func Run(cfg config.Config) (*report.Summary, error) {
	file, err := os.Open(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer file.Close()

	mapping, err := pcxml.Read(file)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}

	tables, err := loadTables(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	issues := validate.New().Validate(mapping)
	result := translate.New(tables).Translate(mapping)
	issues = append(issues, result.Issues...)

	dataflow, err := adf.EncodeDataFlow(result.Flow)
	if err != nil {
		return nil, err
	}
	issues = append(issues, verify.DataFlow(dataflow)...)

	pipeline, err := adf.EncodePipeline(result.Flow)
	if err != nil {
		return nil, err
	}

	entry := report.MappingResult{
		Mapping:    mapping.Name,
		Translated: !diagnostics.HasErrors(issues),
		Stages:     result.Statuses,
		Issues:     append([]report.Issue(nil), issues...),
	}

	if entry.Translated && !cfg.DryRun {
		artifacts := []struct {
			name    string
			payload []byte
		}{
			{name: "dataflow_" + mapping.Name + ".json", payload: dataflow},
			{name: "pipeline_" + mapping.Name + ".json", payload: pipeline},
			{name: mapping.Name + ".dfs", payload: []byte(adf.Script(result.Flow))},
		}

		for _, artifact := range artifacts {
			path := filepath.Join(cfg.OutputDir, artifact.name)
			if err := writeArtifact(path, cfg.Overwrite, artifact.payload); err != nil {
				if errors.Is(err, errOutputExists) {
					entry.Translated = false
					entry.Issues = append(entry.Issues, report.Issue{
						Code:     diagnostics.CodeOutputExists,
						Stage:    diagnostics.StageEmit,
						Subject:  path,
						Severity: diagnostics.SeverityWarning,
						Message:  fmt.Sprintf("output file exists and --overwrite is false: %s", path),
					})
					break
				}
				return nil, fmt.Errorf("write output file: %w", err)
			}
			entry.OutputPaths = append(entry.OutputPaths, artifact.name)
		}
	}

	summary := report.NewSummary()
	summary.Add(entry)

	return summary, nil
}

func loadTables(path string) (rules.Tables, error) {
	if path == "" {
		return rules.Default(), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return rules.Tables{}, fmt.Errorf("open rules file: %w", err)
	}
	defer file.Close()

	tables, err := rules.Load(file)
	if err != nil {
		return rules.Tables{}, fmt.Errorf("load rules file: %w", err)
	}

	return tables, nil
}

func writeArtifact(filename string, overwrite bool, payload []byte) error {
	if !overwrite {
		if _, err := os.Stat(filename); err == nil {
			return errOutputExists
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat output file: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if err := os.WriteFile(filename, payload, 0644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
