package entity

import (
	"time"

	"github.com/google/uuid"
)

// ImportJob tracks one document going through the import processor.
type ImportJob struct {
	ID           uuid.UUID  `json:"id"`
	SourcePath   string     `json:"source_path"`
	Family       string     `json:"family"`
	Format       string     `json:"format"`
	ContentHash  string     `json:"content_hash"`
	Status       string     `json:"status"`
	ItemCount    int        `json:"item_count"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
