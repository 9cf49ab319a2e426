// Package normalize turns localized report text into canonical numbers,
// ISO dates and folded strings.
package normalize

import "log/slog"

// Normalizer owns the logger used to report fallbacks. The zero value is
// usable and logs to slog.Default().
type Normalizer struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

func (n *Normalizer) log() *slog.Logger {
	if n == nil || n.logger == nil {
		return slog.Default()
	}
	return n.logger
}

var std = &Normalizer{}
