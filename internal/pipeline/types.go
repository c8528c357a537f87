package pipeline

import "os"

// Operator characters recognized by the tokenizer. They terminate a word
// wherever they appear, so "ls>out" and "ls > out" parse the same way.
const (
	OpPipe        = '|' // stdout of the left stage feeds stdin of the right
	OpBackground  = '&' // background marker, parsed but inert
	OpRedirectOut = '>' // ">" truncate-create, ">>" append
	OpRedirectIn  = '<' // redirect stdin from a file
)

// Stage is one element of a pipeline.
type Stage struct {
	// Args is the argument vector. Args[0] names the builtin or program.
	Args []string

	// Background is set when a '&' marker was attached to this stage.
	Background bool

	RedirectOut string // target of > or >>, empty if none
	Append      bool   // RedirectOut was given with >>
	RedirectIn  string // source of <, empty if none

	// In and Out are assigned by Build. Until then they are nil, except
	// that Build opens redirect targets first.
	In  *Descriptor
	Out *Descriptor
}

// Name returns Args[0].
func (s *Stage) Name() string {
	if len(s.Args) == 0 {
		return ""
	}
	return s.Args[0]
}

// Close releases the stage's owned descriptors. Inherited descriptors are
// left alone.
func (s *Stage) Close() error {
	err := s.In.Close()
	if cerr := s.Out.Close(); err == nil {
		err = cerr
	}
	return err
}

// Pipeline is the ordered chain of stages parsed from one input line. Stage
// i's successor is Stages[i+1]; the last stage has none.
type Pipeline struct {
	Line   string
	Stages []Stage
}

// Close releases every descriptor still held by the chain. It is safe to
// call more than once.
func (p *Pipeline) Close() error {
	var first error
	for i := range p.Stages {
		if err := p.Stages[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Streams are the coordinator's own standard streams: the "inherited"
// endpoints of a pipeline. They are never closed by the pipeline.
type Streams struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// StdStreams returns the process's standard streams.
func StdStreams() Streams {
	return Streams{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}
