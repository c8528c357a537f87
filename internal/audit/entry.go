package audit

import (
	"fmt"
	"strings"
	"time"
)

// Entry is one line of the journal: a single executed command line.
type Entry struct {
	Seq      uint64    `json:"seq"`
	Time     time.Time `json:"ts"`
	PrevHash string    `json:"prev_hash"`
	Session  string    `json:"session"`         // one id per shell process
	Line     string    `json:"line"`            // the line as typed
	Stages   []string  `json:"stages"`          // command word of each dispatched stage
	Statuses []int     `json:"statuses"`        // exit status of each dispatched stage
	Quit     bool      `json:"quit,omitempty"`  // line ended the session
	Error    string    `json:"error,omitempty"` // parse or build failure
	Duration float64   `json:"duration_ms"`
	Cwd      string    `json:"cwd"`
	Hash     string    `json:"hash"` // SHA-256 of this entry with hash empty
}

// Record is what the shell reports about one line.
type Record struct {
	Line     string
	Stages   []string
	Statuses []int
	Quit     bool
	Err      error
	Duration time.Duration
	Cwd      string
}

// Summary renders e on one line for audit show.
func (e *Entry) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%5d %s %s", e.Seq, e.Time.Local().Format("2006-01-02 15:04:05"), e.Line)
	switch {
	case e.Error != "":
		fmt.Fprintf(&b, "  [error: %s]", e.Error)
	case e.Quit:
		b.WriteString("  [quit]")
	default:
		fmt.Fprintf(&b, "  %v", e.Statuses)
	}
	return b.String()
}
