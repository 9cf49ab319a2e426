package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/repository"
)

type sourceFunc func(ctx context.Context, path string, family constants.DocumentFamily) (entity.Document, error)

func (f sourceFunc) Fetch(ctx context.Context, path string, family constants.DocumentFamily) (entity.Document, error) {
	return f(ctx, path, family)
}

// fileSource reads a .txt file as one page.
var fileSource = sourceFunc(func(_ context.Context, path string, family constants.DocumentFamily) (entity.Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return entity.Document{}, err
	}
	return entity.Document{Family: family, Pages: []string{string(b)}}, nil
})

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newRepos(t *testing.T) (repository.ImportJobRepository, repository.OrderItemRepository) {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: "sqlite", DSN: ":memory:"}, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.SQL.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return repository.NewImportJobRepository(db, nil), repository.NewOrderItemRepository(db, nil)
}

func TestProcessFilePersistsAndSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	jobs, items := newRepos(t)
	path := writeFile(t, "relatorio.txt", page(append([]string{"Pendência - Débito (SIEF)"}, debitLines...)...))

	p := NewProcessor(nil, fileSource, newTestConverter(t), WithPersistence(jobs, items))
	out, err := p.ProcessFile(ctx, path, constants.FamilyTaxStatus)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if out.Duplicate || len(out.Items) != 1 || out.Job.Status != string(constants.ImportStatusSucceeded) {
		t.Fatalf("outcome = %+v", out)
	}

	stored, err := jobs.GetByID(ctx, out.Job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != string(constants.ImportStatusSucceeded) || stored.ItemCount != 1 || stored.Format != "TXT" {
		t.Errorf("stored job = %+v", stored)
	}

	again, err := p.ProcessFile(ctx, path, constants.FamilyTaxStatus)
	if err != nil {
		t.Fatalf("ProcessFile again: %v", err)
	}
	if !again.Duplicate || again.Job.ID != out.Job.ID || len(again.Items) != 1 || again.Items[0].Code != "3373-01" {
		t.Errorf("duplicate outcome = %+v", again)
	}

	forced := NewProcessor(nil, fileSource, newTestConverter(t), WithPersistence(jobs, items), WithReprocess(true))
	third, err := forced.ProcessFile(ctx, path, constants.FamilyTaxStatus)
	if err != nil {
		t.Fatalf("ProcessFile reprocess: %v", err)
	}
	if third.Duplicate || third.Job.ID == out.Job.ID {
		t.Errorf("reprocess reused job %s", third.Job.ID)
	}
}

func TestProcessFileNothingExtracted(t *testing.T) {
	ctx := context.Background()
	jobs, items := newRepos(t)
	path := writeFile(t, "vazio.txt", "texto sem tabelas")

	p := NewProcessor(nil, fileSource, newTestConverter(t), WithPersistence(jobs, items))
	out, err := p.ProcessFile(ctx, path, constants.FamilyTaxStatus)
	if !errors.Is(err, common.ErrNothingExtracted) {
		t.Fatalf("err = %v, want ErrNothingExtracted", err)
	}
	stored, err := jobs.GetByID(ctx, out.Job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != string(constants.ImportStatusNothingExtracted) || stored.ErrorMessage == nil {
		t.Errorf("stored job = %+v", stored)
	}
}

func TestProcessFileFetchFailure(t *testing.T) {
	ctx := context.Background()
	jobs, items := newRepos(t)
	path := writeFile(t, "relatorio.pdf", "%PDF-1.4")
	boom := errors.New("service down")
	src := sourceFunc(func(context.Context, string, constants.DocumentFamily) (entity.Document, error) {
		return entity.Document{}, boom
	})

	out, err := NewProcessor(nil, src, newTestConverter(t), WithPersistence(jobs, items)).
		ProcessFile(ctx, path, constants.FamilyTaxStatus)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	stored, err := jobs.GetByID(ctx, out.Job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Status != string(constants.ImportStatusFailed) {
		t.Errorf("status = %s, want FAILED", stored.Status)
	}
}

func TestProcessFileWithoutPersistence(t *testing.T) {
	path := writeFile(t, "relatorio.txt", page(append([]string{"Pendência - Débito (SIEF)"}, debitLines...)...))
	out, err := NewProcessor(nil, fileSource, newTestConverter(t)).ProcessFile(context.Background(), path, constants.FamilyTaxStatus)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(out.Items) != 1 || out.Job.ContentHash == "" || out.Job.FinishedAt == nil {
		t.Errorf("outcome = %+v", out.Job)
	}
}

func TestProcessFileRejectsUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "foto.png", "x")
	_, err := NewProcessor(nil, fileSource, newTestConverter(t)).ProcessFile(context.Background(), path, constants.FamilyTaxStatus)
	if !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
