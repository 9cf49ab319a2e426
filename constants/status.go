package constants

// ImportStatus is the canonical status for rows in import_jobs.
type ImportStatus string

// Stable values (store these exact strings in DB).
const (
	ImportStatusQueued           ImportStatus = "QUEUED"
	ImportStatusRunning          ImportStatus = "RUNNING"
	ImportStatusSucceeded        ImportStatus = "SUCCEEDED"
	ImportStatusNothingExtracted ImportStatus = "NOTHING_EXTRACTED"
	ImportStatusFailed           ImportStatus = "FAILED"
)

// Terminal reports whether no further transition is expected.
func (s ImportStatus) Terminal() bool {
	switch s {
	case ImportStatusSucceeded, ImportStatusNothingExtracted, ImportStatusFailed:
		return true
	}
	return false
}

// DebtStatuses is the fixed vocabulary recognised on status lines.
var DebtStatuses = []string{"DEVEDOR", "ATIVO", "SUSPENSO", "CANCELADO"}
