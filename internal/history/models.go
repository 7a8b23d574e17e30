package history

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Run is one invocation of the orchestrator.
type Run struct {
	ID          string `gorm:"primaryKey;size:26"`
	StartedAt   time.Time
	FinishedAt  *time.Time
	InputRoot   string
	OutputRoot  string
	InputCodec  string `gorm:"size:16"`
	Encoder     string `gorm:"size:16"`
	CRF         int
	Preset      string `gorm:"size:16"`
	DryRun      bool
	Total       int
	Success     int
	Failed      int
	WrongCodec  int
	Interrupted bool
}

// BeforeCreate assigns a ULID so runs sort by start time.
func (r *Run) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = NewID(r.StartedAt)
	}
	return nil
}

// Outcome is the terminal state of one file within a run.
type Outcome struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"size:26;index"`
	Input     string
	Output    string
	State     string `gorm:"size:32;index"`
	Codec     string `gorm:"size:32"`
	Seconds   int64
	Detail    string
	CreatedAt time.Time
}

// NewID returns a ULID for t, or for now when t is zero.
func NewID(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}
