package resttimer

import (
	"io"
	"log/slog"
	"sync"
)

// BellAlerter rings the terminal bell on w when a rest period ends.
type BellAlerter struct {
	mu  sync.Mutex
	w   io.Writer
	log *slog.Logger
}

// NewBellAlerter creates an alerter writing to w (typically os.Stderr).
func NewBellAlerter(w io.Writer, log *slog.Logger) *BellAlerter {
	return &BellAlerter{w: w, log: log}
}

func (b *BellAlerter) RestComplete(exerciseID, setID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		b.log.Warn("rest alert failed", "error", err)
	}
}
