package procfs

import (
	"fmt"
	"path"
	"sort"
	"strconv"

	"github.com/spf13/afero"
)

const (
	// DefaultRoot is where the kernel mounts process information.
	DefaultRoot = "/proc"

	// DefaultClockTicks is USER_HZ on every mainstream Linux build.
	DefaultClockTicks = 100
)

// FS reads a /proc tree through an afero filesystem, so tests can supply a
// fake tree.
type FS struct {
	fs   afero.Fs
	root string
}

// New returns an FS rooted at root on fs. An empty root means DefaultRoot
// and a nil fs means the host filesystem.
func New(fs afero.Fs, root string) *FS {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if root == "" {
		root = DefaultRoot
	}
	return &FS{fs: fs, root: root}
}

// PIDs lists every numeric entry under the root, ascending.
func (p *FS) PIDs() ([]int, error) {
	entries, err := afero.ReadDir(p.fs, p.root)
	if err != nil {
		return nil, err
	}
	var pids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids, nil
}

// Stat reads and parses /proc/<pid>/stat.
func (p *FS) Stat(pid int) (*Stat, error) {
	data, err := afero.ReadFile(p.fs, path.Join(p.root, strconv.Itoa(pid), "stat"))
	if err != nil {
		return nil, err
	}
	return ParseStat(data)
}

// All returns the stat of every process under the root, sorted by pid.
// Processes that exit while being listed are skipped.
func (p *FS) All() ([]*Stat, error) {
	pids, err := p.PIDs()
	if err != nil {
		return nil, err
	}
	stats := make([]*Stat, 0, len(pids))
	for _, pid := range pids {
		s, err := p.Stat(pid)
		if err != nil {
			continue
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// Family returns pid followed by its direct children, sorted by pid.
func (p *FS) Family(pid int) ([]*Stat, error) {
	self, err := p.Stat(pid)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", pid, err)
	}
	all, err := p.All()
	if err != nil {
		return nil, err
	}
	family := []*Stat{self}
	for _, s := range all {
		if s.PPID == pid && s.PID != pid {
			family = append(family, s)
		}
	}
	sort.Slice(family, func(i, j int) bool { return family[i].PID < family[j].PID })
	return family, nil
}
