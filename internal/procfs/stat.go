// Package procfs reads process information from a Linux /proc tree.
package procfs

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stat holds the leading fields of /proc/<pid>/stat, in file order.
type Stat struct {
	PID         int
	Comm        string
	State       string
	PPID        int
	PGRP        int
	Session     int
	TTYNr       uint64
	TPGID       int
	Flags       uint64
	MinFlt      uint64
	CMinFlt     uint64
	MajFlt      uint64
	CMajFlt     uint64
	UTime       uint64
	STime       uint64
	CUTime      int64
	CSTime      int64
	Priority    int64
	Nice        int64
	NumThreads  int64
	ItRealValue int64
}

// ParseStat parses the contents of a stat file. The command name is the
// text between the first '(' and the last ')', so names containing spaces
// or parentheses survive.
func ParseStat(data []byte) (*Stat, error) {
	lp := bytes.IndexByte(data, '(')
	rp := bytes.LastIndexByte(data, ')')
	if lp < 0 || rp < lp {
		return nil, fmt.Errorf("stat: malformed command name")
	}

	s := &Stat{Comm: string(data[lp+1 : rp])}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data[:lp])))
	if err != nil {
		return nil, fmt.Errorf("stat: pid: %w", err)
	}
	s.PID = pid

	fields := strings.Fields(string(data[rp+1:]))
	if len(fields) < 19 {
		return nil, fmt.Errorf("stat: expected at least 19 fields after command, got %d", len(fields))
	}

	p := fieldParser{fields: fields}
	s.State = p.next()
	s.PPID = p.nextInt()
	s.PGRP = p.nextInt()
	s.Session = p.nextInt()
	s.TTYNr = p.nextUint()
	s.TPGID = p.nextInt()
	s.Flags = p.nextUint()
	s.MinFlt = p.nextUint()
	s.CMinFlt = p.nextUint()
	s.MajFlt = p.nextUint()
	s.CMajFlt = p.nextUint()
	s.UTime = p.nextUint()
	s.STime = p.nextUint()
	s.CUTime = p.nextInt64()
	s.CSTime = p.nextInt64()
	s.Priority = p.nextInt64()
	s.Nice = p.nextInt64()
	s.NumThreads = p.nextInt64()
	s.ItRealValue = p.nextInt64()
	if p.err != nil {
		return nil, fmt.Errorf("stat: pid %d: %w", pid, p.err)
	}
	return s, nil
}

type fieldParser struct {
	fields []string
	i      int
	err    error
}

func (p *fieldParser) next() string {
	s := p.fields[p.i]
	p.i++
	return s
}

func (p *fieldParser) nextInt64() int64 {
	s := p.next()
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %d: %w", p.i+2, err)
	}
	return v
}

func (p *fieldParser) nextInt() int { return int(p.nextInt64()) }

func (p *fieldParser) nextUint() uint64 {
	s := p.next()
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("field %d: %w", p.i+2, err)
	}
	return v
}

// TTYName renders the controlling terminal from tty_nr: pts/N for the
// pseudo-terminal major (136), /dev/ttyN otherwise.
func (s *Stat) TTYName() string {
	n := (s.TTYNr & 0xff) | ((s.TTYNr & 0xffff0000) >> 16)
	if (s.TTYNr>>8)&0xff == 0x88 {
		return fmt.Sprintf("pts/%d", n)
	}
	return fmt.Sprintf("/dev/tty%d", n)
}

// CPUTime is user plus system time, given ticks clock ticks per second.
func (s *Stat) CPUTime(ticks int) time.Duration {
	if ticks <= 0 {
		ticks = DefaultClockTicks
	}
	total := s.UTime + s.STime
	secs := total / uint64(ticks)
	rem := total % uint64(ticks)
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(ticks)
}

// FormatCPUTime renders d as HH:MM:SS, truncating fractions of a second.
// Hours are not wrapped.
func FormatCPUTime(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
