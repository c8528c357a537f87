package pipeline

import (
	"errors"
	"reflect"
	"testing"
)

func stageArgs(p *Pipeline) [][]string {
	var out [][]string
	for _, s := range p.Stages {
		out = append(out, s.Args)
	}
	return out
}

func TestParseSingleStage(t *testing.T) {
	p, err := Parse("grep -r TODO src/")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Stages) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(p.Stages))
	}
	if p.Stages[0].Name() != "grep" {
		t.Errorf("expected grep, got %s", p.Stages[0].Name())
	}
	if len(p.Stages[0].Args) != 4 {
		t.Errorf("expected 4 args, got %d", len(p.Stages[0].Args))
	}
}

func TestParsePipeline(t *testing.T) {
	p, err := Parse("grep -r TODO src/ | sort | uniq -c | head -20")
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"grep", "-r", "TODO", "src/"},
		{"sort"},
		{"uniq", "-c"},
		{"head", "-20"},
	}
	if got := stageArgs(p); !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestParseWhitespace(t *testing.T) {
	tests := []struct {
		line string
		want [][]string
	}{
		{"a b c", [][]string{{"a", "b", "c"}}},
		{"   a   b\t\tc  ", [][]string{{"a", "b", "c"}}},
		{"a|b", [][]string{{"a"}, {"b"}}},
		{"a  |  b", [][]string{{"a"}, {"b"}}},
		{"ls -l\n", [][]string{{"ls", "-l"}}},
		{"ls -l\nrm -rf /", [][]string{{"ls", "-l"}}},
		{"ls\x00rm", [][]string{{"ls"}}},
	}
	for _, tt := range tests {
		p, err := Parse(tt.line)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.line, err)
			continue
		}
		if got := stageArgs(p); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Parse(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}

func TestParseLineStopsAtNewline(t *testing.T) {
	p, err := Parse("echo hi\necho there")
	if err != nil {
		t.Fatal(err)
	}
	if p.Line != "echo hi" {
		t.Errorf("expected line %q, got %q", "echo hi", p.Line)
	}
}

func TestParseRedirects(t *testing.T) {
	p, err := Parse("sort < in.txt | uniq>out.txt")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stages[0].RedirectIn != "in.txt" {
		t.Errorf("expected stdin redirect in.txt, got %q", p.Stages[0].RedirectIn)
	}
	if p.Stages[1].RedirectOut != "out.txt" || p.Stages[1].Append {
		t.Errorf("expected truncating redirect to out.txt, got %q append=%v", p.Stages[1].RedirectOut, p.Stages[1].Append)
	}
	if !reflect.DeepEqual(stageArgs(p), [][]string{{"sort"}, {"uniq"}}) {
		t.Errorf("redirect targets leaked into args: %q", stageArgs(p))
	}
}

func TestParseAppend(t *testing.T) {
	p, err := Parse("date >> log.txt")
	if err != nil {
		t.Fatal(err)
	}
	s := p.Stages[0]
	if s.RedirectOut != "log.txt" || !s.Append {
		t.Errorf("expected append to log.txt, got %q append=%v", s.RedirectOut, s.Append)
	}
}

func TestParseRedirectMidStage(t *testing.T) {
	p, err := Parse("echo > out.txt hello")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.Stages[0].Args, []string{"echo", "hello"}) {
		t.Errorf("got %q", p.Stages[0].Args)
	}
}

func TestParseBackground(t *testing.T) {
	p, err := Parse("sleep 10 & | cat")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Stages[0].Background {
		t.Error("expected stage 0 to carry the background marker")
	}
	if p.Stages[1].Background {
		t.Error("stage 1 should not carry the background marker")
	}

	p, err = Parse("sleep 10&")
	if err != nil {
		t.Fatal(err)
	}
	if !p.Stages[0].Background || len(p.Stages[0].Args) != 2 {
		t.Errorf("got args %q background=%v", p.Stages[0].Args, p.Stages[0].Background)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		line string
		kind ParseKind
	}{
		{"", EmptyCommand},
		{"   ", EmptyCommand},
		{"   \n", EmptyCommand},
		{"\n echo", EmptyCommand},
		{"|", EmptyStage},
		{"| wc", EmptyStage},
		{"a |", EmptyStage},
		{"a || b", EmptyStage},
		{"&", EmptyStage},
		{"> out", EmptyStage},
		{"a >", MissingRedirectTarget},
		{"a > | b", MissingRedirectTarget},
		{"a <", MissingRedirectTarget},
		{"a >>", MissingRedirectTarget},
		{"a > x > y", DuplicateRedirect},
		{"a >> x > y", DuplicateRedirect},
		{"a < x < y", DuplicateRedirect},
	}
	for _, tt := range tests {
		p, err := Parse(tt.line)
		if err == nil {
			t.Errorf("Parse(%q): expected %s, got %d stages", tt.line, tt.kind, len(p.Stages))
			continue
		}
		if p != nil {
			t.Errorf("Parse(%q): expected no pipeline on error", tt.line)
		}
		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Parse(%q): expected *ParseError, got %T", tt.line, err)
			continue
		}
		if pe.Kind != tt.kind {
			t.Errorf("Parse(%q): expected %s, got %s", tt.line, tt.kind, pe.Kind)
		}
		if !errors.Is(err, &ParseError{Kind: tt.kind}) {
			t.Errorf("Parse(%q): errors.Is did not match kind %s", tt.line, tt.kind)
		}
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("ls | | wc")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Pos != 5 {
		t.Errorf("expected position 5, got %d", pe.Pos)
	}
	if pe.Error() != "empty stage at column 6" {
		t.Errorf("unexpected message %q", pe.Error())
	}
}

func TestParseOpensNothing(t *testing.T) {
	p, err := Parse("echo hi > /nonexistent/dir/file")
	if err != nil {
		t.Fatal(err)
	}
	if p.Stages[0].In != nil || p.Stages[0].Out != nil {
		t.Error("parse should not assign descriptors")
	}
}
