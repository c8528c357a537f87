package pipeline

import (
	"fmt"
	"os"
)

// Kind says where a descriptor came from and who owns it.
type Kind int

const (
	Inherited Kind = iota // coordinator's own stdin/stdout, never closed here
	PipeRead              // read end of an inter-stage pipe
	PipeWrite             // write end of an inter-stage pipe
	File                  // redirect target opened by Build
)

func (k Kind) String() string {
	switch k {
	case Inherited:
		return "inherited"
	case PipeRead:
		return "pipe-read"
	case PipeWrite:
		return "pipe-write"
	case File:
		return "file"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Descriptor is a handle on one stage endpoint. Owned descriptors (pipe
// ends and redirect files) are closed exactly once; inherited ones never.
type Descriptor struct {
	kind   Kind
	file   *os.File
	peer   *Descriptor // other end of the same pipe
	closed bool
}

func inherited(f *os.File) *Descriptor {
	return &Descriptor{kind: Inherited, file: f}
}

func opened(f *os.File) *Descriptor {
	return &Descriptor{kind: File, file: f}
}

func newPipe() (r, w *Descriptor, err error) {
	rf, wf, err := os.Pipe()
	if err != nil {
		return nil, nil, err
	}
	r = &Descriptor{kind: PipeRead, file: rf}
	w = &Descriptor{kind: PipeWrite, file: wf}
	r.peer, w.peer = w, r
	return r, w, nil
}

// Kind reports the descriptor's origin.
func (d *Descriptor) Kind() Kind { return d.kind }

// File returns the underlying file. It is nil once an owned descriptor has
// been closed or detached.
func (d *Descriptor) File() *os.File {
	if d == nil || d.closed {
		return nil
	}
	return d.file
}

// Peer returns the other end of the pipe for pipe descriptors, nil otherwise.
func (d *Descriptor) Peer() *Descriptor { return d.peer }

// Owned reports whether the pipeline is responsible for closing d.
func (d *Descriptor) Owned() bool { return d.kind != Inherited }

// Closed reports whether an owned descriptor has been released.
func (d *Descriptor) Closed() bool { return d.closed }

// Close releases an owned descriptor. Closing twice, closing nil, or
// closing an inherited descriptor does nothing.
func (d *Descriptor) Close() error {
	if d == nil || !d.Owned() || d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

// detach hands the file to a new owner. The descriptor behaves as closed
// afterwards and the caller must close the returned file.
func (d *Descriptor) detach() *os.File {
	if d == nil || !d.Owned() || d.closed {
		return nil
	}
	d.closed = true
	return d.file
}

func (d *Descriptor) String() string {
	if d == nil {
		return "<unset>"
	}
	if d.closed {
		return d.kind.String() + "(closed)"
	}
	return fmt.Sprintf("%s(fd %d)", d.kind, d.file.Fd())
}
