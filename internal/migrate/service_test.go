package migrate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pcmigrate/pc2adf/internal/config"
	"github.com/pcmigrate/pc2adf/internal/diagnostics"
	"github.com/pcmigrate/pc2adf/internal/report"
)

const workbookXML = `<?xml version="1.0" encoding="UTF-8"?>
<POWERMART REPOSITORY_VERSION="185.96">
  <REPOSITORY NAME="REPO">
    <FOLDER NAME="SALES">
      <SOURCE NAME="ORDERS" DATABASETYPE="Oracle" TABLENAME="ORDERS">
        <TRANSFORMFIELD NAME="ORDER_ID" DATATYPE="decimal" PRECISION="9" SCALE="0"/>
        <TRANSFORMFIELD NAME="STATUS" DATATYPE="varchar2" PRECISION="20"/>
      </SOURCE>
      <TARGET NAME="ORDERS_OUT" DATABASETYPE="Microsoft SQL Server" TABLENAME="dbo.Orders">
        <TRANSFORMFIELD NAME="ORDER_ID" DATATYPE="int"/>
      </TARGET>
      <MAPPING NAME="m_orders">
        <TRANSFORMATION NAME="FLT_OPEN" TYPE="Filter">
          <TRANSFORMFIELD NAME="ORDER_ID" DATATYPE="decimal" PRECISION="9"/>
          <TRANSFORMFIELD NAME="STATUS" DATATYPE="varchar2" PRECISION="20"/>
          <TABLEATTRIBUTE NAME="Filter Condition" VALUE="STATUS != 'closed'"/>
        </TRANSFORMATION>
        <CONNECTOR FROMINSTANCE="ORDERS" TOINSTANCE="FLT_OPEN" FROMFIELD="ORDER_ID" TOFIELD="ORDER_ID"/>
        <CONNECTOR FROMINSTANCE="ORDERS" TOINSTANCE="FLT_OPEN" FROMFIELD="STATUS" TOFIELD="STATUS"/>
        <CONNECTOR FROMINSTANCE="FLT_OPEN" TOINSTANCE="ORDERS_OUT" FROMFIELD="ORDER_ID" TOFIELD="ORDER_ID"/>
      </MAPPING>
    </FOLDER>
  </REPOSITORY>
</POWERMART>`

func writeWorkbook(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "m_orders.xml")
	if err := os.WriteFile(path, []byte(workbookXML), 0644); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	return path
}

func TestRunWritesArtifacts(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	summary, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: outputDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Total != 1 || summary.Translated != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.HasErrors() {
		t.Fatalf("issues = %v", summary.Mappings[0].Issues)
	}

	for _, name := range []string{
		"dataflow_m_orders.json",
		"pipeline_m_orders.json",
		"m_orders.dfs",
	} {
		if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	payload, err := os.ReadFile(filepath.Join(outputDir, "dataflow_m_orders.json"))
	if err != nil {
		t.Fatalf("read dataflow: %v", err)
	}
	var document struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(payload, &document); err != nil {
		t.Fatalf("unmarshal dataflow: %v", err)
	}
	if document.Name != "dataflow_m_orders" {
		t.Fatalf("dataflow name = %q", document.Name)
	}

	script, err := os.ReadFile(filepath.Join(outputDir, "m_orders.dfs"))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	if !strings.Contains(string(script), "filter(STATUS <> 'closed') ~> FLT_OPEN") {
		t.Fatalf("script = %s", script)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	summary, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: outputDir,
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Translated != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %v", entries)
	}
	if len(summary.Mappings[0].OutputPaths) != 0 {
		t.Fatalf("output paths = %v", summary.Mappings[0].OutputPaths)
	}
}

func TestRunRefusesToOverwrite(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	existing := filepath.Join(outputDir, "dataflow_m_orders.json")
	if err := os.WriteFile(existing, []byte("{}"), 0644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	summary, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: outputDir,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.Skipped != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	found := false
	for _, issue := range summary.Mappings[0].Issues {
		if issue.Code == diagnostics.CodeOutputExists {
			found = true
		}
	}
	if !found {
		t.Fatalf("issues = %v", summary.Mappings[0].Issues)
	}
}

func TestRunOverwriteReplacesExisting(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	existing := filepath.Join(outputDir, "dataflow_m_orders.json")
	if err := os.WriteFile(existing, []byte("stale"), 0644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	summary, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: outputDir,
		Overwrite: true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Translated != 1 {
		t.Fatalf("summary = %+v", summary)
	}

	payload, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(payload) == "stale" {
		t.Fatal("artifact not replaced")
	}
}

func TestRunCustomRules(t *testing.T) {
	t.Parallel()

	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	rules := "operators:\n  - from: \"!=\"\n    to: \"!=\"\n"
	if err := os.WriteFile(rulesPath, []byte(rules), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	outputDir := t.TempDir()
	_, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: outputDir,
		RulesFile: rulesPath,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	script, err := os.ReadFile(filepath.Join(outputDir, "m_orders.dfs"))
	if err != nil {
		t.Fatalf("read script: %v", err)
	}
	// The override keeps the source spelling instead of rewriting it.
	if !strings.Contains(string(script), "filter(STATUS != 'closed')") {
		t.Fatalf("script = %s", script)
	}
}

func TestRunRejectsBadRulesFile(t *testing.T) {
	t.Parallel()

	rulesPath := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte("operators:\n  - to: x\n"), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}

	_, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: t.TempDir(),
		RulesFile: rulesPath,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunRejectsMalformedWorkbook(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.xml")
	if err := os.WriteFile(path, []byte("<POWERMART><MAPPING"), 0644); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	_, err := Run(config.Config{InputFile: path, OutputDir: t.TempDir()})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRunReportFormats(t *testing.T) {
	t.Parallel()

	summary, err := Run(config.Config{
		InputFile: writeWorkbook(t),
		OutputDir: t.TempDir(),
		DryRun:    true,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var text strings.Builder
	if err := summary.Write(&text, report.FormatText); err != nil {
		t.Fatalf("Write text: %v", err)
	}
	if !strings.Contains(text.String(), "total mappings: 1") {
		t.Fatalf("text = %s", text.String())
	}

	var jsonOut strings.Builder
	if err := summary.Write(&jsonOut, report.FormatJSON); err != nil {
		t.Fatalf("Write json: %v", err)
	}
	if !strings.Contains(jsonOut.String(), "\"run_id\"") {
		t.Fatalf("json = %s", jsonOut.String())
	}
}
