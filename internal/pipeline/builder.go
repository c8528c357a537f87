package pipeline

import "os"

const redirectPerm = 0o666

// Build assigns every stage's input and output descriptor. Redirect targets
// are opened first, then one pipe is allocated per adjacent pair of stages.
// Stages with nothing else assigned inherit std's stdin and stdout.
//
// On failure every descriptor opened so far is released and a
// *ResourceError is returned.
func Build(p *Pipeline, std Streams) error {
	if err := openRedirects(p); err != nil {
		p.Close()
		return err
	}

	n := len(p.Stages)
	for i := range p.Stages {
		s := &p.Stages[i]
		if s.In == nil {
			s.In = inherited(std.Stdin)
		}
		if i == n-1 {
			if s.Out == nil {
				s.Out = inherited(std.Stdout)
			}
			break
		}

		r, w, err := newPipe()
		if err != nil {
			p.Close()
			return &ResourceError{Op: "pipe", Err: err}
		}
		next := &p.Stages[i+1]

		// A redirected stage still feeds its successor, but with an empty
		// stream rather than the terminal.
		if s.Out == nil {
			s.Out = w
		} else {
			w.Close()
		}
		if next.In == nil {
			next.In = r
		} else {
			r.Close()
		}
	}
	return nil
}

func openRedirects(p *Pipeline) error {
	for i := range p.Stages {
		s := &p.Stages[i]
		if s.RedirectIn != "" {
			f, err := os.OpenFile(s.RedirectIn, os.O_RDONLY, 0)
			if err != nil {
				return &ResourceError{Op: "open", Path: s.RedirectIn, Err: err}
			}
			s.In = opened(f)
		}
		if s.RedirectOut != "" {
			flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
			if s.Append {
				flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
			}
			f, err := os.OpenFile(s.RedirectOut, flags, redirectPerm)
			if err != nil {
				return &ResourceError{Op: "open", Path: s.RedirectOut, Err: err}
			}
			s.Out = opened(f)
		}
	}
	return nil
}
