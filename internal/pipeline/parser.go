package pipeline

type tokenKind int

const (
	tokWord tokenKind = iota
	tokPipe
	tokBackground
	tokRedirectOut
	tokAppendOut
	tokRedirectIn
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// Parse splits one input line into a pipeline. Stages are separated by '|',
// arguments by runs of whitespace. Newline and NUL end the line. Parsing
// opens nothing; redirect targets are opened by Build.
func Parse(line string) (*Pipeline, error) {
	toks, end := lex(line)
	if len(toks) == 0 {
		return nil, &ParseError{Kind: EmptyCommand, Pos: end}
	}

	p := &Pipeline{Line: line[:end]}
	var cur Stage
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokWord:
			cur.Args = append(cur.Args, t.text)
		case tokPipe:
			if len(cur.Args) == 0 {
				return nil, &ParseError{Kind: EmptyStage, Pos: t.pos}
			}
			p.Stages = append(p.Stages, cur)
			cur = Stage{}
		case tokBackground:
			cur.Background = true
		case tokRedirectOut, tokAppendOut, tokRedirectIn:
			if i+1 >= len(toks) || toks[i+1].kind != tokWord {
				return nil, &ParseError{Kind: MissingRedirectTarget, Pos: t.pos}
			}
			i++
			target := toks[i].text
			if t.kind == tokRedirectIn {
				if cur.RedirectIn != "" {
					return nil, &ParseError{Kind: DuplicateRedirect, Pos: t.pos}
				}
				cur.RedirectIn = target
				continue
			}
			if cur.RedirectOut != "" {
				return nil, &ParseError{Kind: DuplicateRedirect, Pos: t.pos}
			}
			cur.RedirectOut = target
			cur.Append = t.kind == tokAppendOut
		}
	}
	if len(cur.Args) == 0 {
		return nil, &ParseError{Kind: EmptyStage, Pos: end}
	}
	p.Stages = append(p.Stages, cur)
	return p, nil
}

// lex returns the tokens of line up to the first newline or NUL, and the
// offset at which scanning stopped.
func lex(line string) ([]token, int) {
	var toks []token
	start := -1
	flush := func(i int) {
		if start >= 0 {
			toks = append(toks, token{kind: tokWord, text: line[start:i], pos: start})
			start = -1
		}
	}

	i := 0
	for ; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\n' || c == 0:
			flush(i)
			return toks, i
		case isSpace(c):
			flush(i)
		case c == OpPipe:
			flush(i)
			toks = append(toks, token{kind: tokPipe, pos: i})
		case c == OpBackground:
			flush(i)
			toks = append(toks, token{kind: tokBackground, pos: i})
		case c == OpRedirectOut:
			flush(i)
			if i+1 < len(line) && line[i+1] == OpRedirectOut {
				toks = append(toks, token{kind: tokAppendOut, pos: i})
				i++
			} else {
				toks = append(toks, token{kind: tokRedirectOut, pos: i})
			}
		case c == OpRedirectIn:
			flush(i)
			toks = append(toks, token{kind: tokRedirectIn, pos: i})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(i)
	return toks, i
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\v', '\f':
		return true
	}
	return false
}
