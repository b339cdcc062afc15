package textproc

import (
	"testing"

	"github.com/cognicore/threadlens/pkg/threadlens/stoplist"
)

func TestPreprocessorProcess(t *testing.T) {
	p := NewPreprocessor(nil, false)

	cases := []struct {
		in, want string
	}{
		{"The Climate Policy Debate!", "climate policy debate"},
		{"What's new in <b>Go</b> 1.24?", "new go 1 24"},
		{"Tom &amp; Jerry", "tom jerry"},
		{"", ""},
		{"the and of", ""},
	}
	for _, tc := range cases {
		if got := p.Process(tc.in); got != tc.want {
			t.Errorf("Process(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPreprocessorIdempotent(t *testing.T) {
	inputs := []string{
		"Running runners ran quickly through the organizations",
		"<p>Generously <script>alert(1)</script>conditional abilities</p>",
		"Investing in index funds: a beginner's guide &mdash; part 2",
		"Électricité and naïve café owners",
	}
	for _, stem := range []bool{false, true} {
		p := NewPreprocessor(stoplist.NewEnglish(), stem)
		for _, in := range inputs {
			once := p.Process(in)
			twice := p.Process(once)
			if once != twice {
				t.Errorf("stem=%v: not idempotent for %q: %q -> %q", stem, in, once, twice)
			}
		}
	}
}

func TestPreprocessorStemming(t *testing.T) {
	p := NewPreprocessor(nil, true)
	if got := p.Process("running games"); got != "run game" {
		t.Errorf("got %q, want %q", got, "run game")
	}
}

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"<p>hello <em>world</em></p>", "hello  world"},
		{"a &lt; b", "a < b"},
		{"<style>p{}</style>visible", "visible"},
	}
	for _, tc := range cases {
		if got := StripMarkup(tc.in); got != tc.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitLabel(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 20, "short"},
		{"climate policy debate in the senate", 20, "climate policy\ndebate in the senate"},
		{"supercalifragilisticexpialidocious word", 10, "supercalifragilisticexpialidocious\nword"},
		{"  spaced   out  ", 20, "spaced out"},
		{"no width", 0, "no width"},
	}
	for _, tc := range cases {
		if got := SplitLabel(tc.in, tc.width); got != tc.want {
			t.Errorf("SplitLabel(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
