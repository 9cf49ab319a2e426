package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/textextract"
	"github.com/joseph-ayodele/fiscal-extract/internal/upstream"
)

func testConfig() *common.Config {
	cfg := common.LoadConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	cfg.Extraction.ServiceURL = ""
	cfg.Pipeline.MarkersFile = ""
	return cfg
}

func TestNewSource(t *testing.T) {
	src, err := NewSource(common.ExtractionConfig{}, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, ok := src.(*textextract.Reader); !ok {
		t.Errorf("source = %T, want *textextract.Reader", src)
	}

	src, err = NewSource(common.ExtractionConfig{ServiceURL: "http://localhost:9000"}, nil)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if _, ok := src.(*upstream.Client); !ok {
		t.Errorf("source = %T, want *upstream.Client", src)
	}
}

func TestNewConverterMarkersFile(t *testing.T) {
	_, err := NewConverter(common.PipelineConfig{MarkersFile: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	if err == nil {
		t.Error("expected error for missing markers file")
	}
}

func TestBuildPersistent(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(), Options{Persist: true}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()

	path := filepath.Join(t.TempDir(), "relatorio.txt")
	body := "Pendência - Débito (SIEF)\n3373-01 - IRPJ\n01/2024\n31/01/2024\n100,00\n100,00\n0,00\n0,00\n100,00\nDEVEDOR"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := a.Processor.ProcessFile(ctx, path, constants.FamilyTaxStatus)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	stored, err := a.Items.ListByImport(ctx, out.Job.ID)
	if err != nil {
		t.Fatalf("ListByImport: %v", err)
	}
	if len(stored) != 1 || stored[0].Code != "3373-01" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestBuildWithoutPersistence(t *testing.T) {
	a, err := Build(context.Background(), testConfig(), Options{}, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer a.Close()
	if a.DB != nil || a.Jobs != nil {
		t.Error("database opened without Persist")
	}
}
