package textnorm

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses runs", "a  b\t\tc", "a b c"},
		{"trims", "  hello  ", "hello"},
		{"newlines", "one\ntwo\n\nthree", "one two three"},
		{"empty", "", ""},
		{"only whitespace", " \n\t ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripMarkup(t *testing.T) {
	input := "<p>first line<br/>second line</p><p>next para</p>"
	got := StripMarkup(input)
	if !strings.Contains(got, "first line\nsecond line") {
		t.Errorf("br not converted to newline: %q", got)
	}
	if strings.Contains(got, "<") {
		t.Errorf("tags survived: %q", got)
	}
	if !strings.Contains(got, "next para") {
		t.Errorf("paragraph text lost: %q", got)
	}
}

func TestAbsolutize(t *testing.T) {
	const base = "https://www.reddit.com"
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{
			"relative link",
			`<a href="/r/golang/wiki">wiki</a>`,
			`<a href="https://www.reddit.com/r/golang/wiki">wiki</a>`,
		},
		{
			"absolute left alone",
			`<a href="https://example.com/x">x</a>`,
			`<a href="https://example.com/x">x</a>`,
		},
		{
			"anchor left alone",
			`<a href="#top">top</a>`,
			`<a href="#top">top</a>`,
		},
		{
			"bare path gains slash",
			`<a href="wiki/rules">rules</a>`,
			`<a href="https://www.reddit.com/wiki/rules">rules</a>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Absolutize(tt.fragment, base); got != tt.want {
				t.Errorf("Absolutize(%q) = %q, want %q", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	input := `<p>ok</p><script>alert(1)</script><a href="https://example.com">link</a>`
	got := Sanitize(input)
	if strings.Contains(got, "script") {
		t.Errorf("script survived sanitization: %q", got)
	}
	if !strings.Contains(got, "<p>ok</p>") {
		t.Errorf("benign markup removed: %q", got)
	}
	if !strings.Contains(got, "example.com") {
		t.Errorf("link removed: %q", got)
	}
}
