package core

import (
	"time"

	"github.com/illarion/lockpass/internal/secret"
)

// Record is one credential entry.
type Record struct {
	Name      string
	Username  string
	Password  *secret.Buffer
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is what List exposes: never the password.
type Summary struct {
	Name     string
	Username string
}

// Clone returns a deep copy; the caller owns the copied password.
func (r *Record) Clone() *Record {
	c := *r
	c.Password = r.Password.Clone()
	return &c
}

// Erase scrubs the password.
func (r *Record) Erase() {
	if r != nil {
		r.Password.Erase()
	}
}

func eraseRecords(records map[string]*Record) {
	for _, r := range records {
		r.Erase()
	}
}

// Clock supplies record timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
