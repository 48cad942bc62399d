package textnorm

import (
	"math"
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercases", "Golang ROCKS", []string{"golang", "rocks"}},
		{"drops stop words", "the best of the tools", []string{"tools"}},
		{"drops short tokens", "go it golang works", []string{"golang", "works"}},
		{"drops urls", "see https://example.com/page for details", []string{"see", "details"}},
		{"keeps hyphenated", "air-fry tonight", []string{"air-fry", "tonight"}},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokenize(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTopKeywords(t *testing.T) {
	text := "docker docker docker kubernetes kubernetes terraform"
	got := TopKeywords(text, 2)
	want := []string{"docker", "kubernetes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopKeywords = %v, want %v", got, want)
	}
}

func TestTopKeywordsTieKeepsFirstSeen(t *testing.T) {
	got := TopKeywords("alpha beta alpha beta gamma", 3)
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopKeywords = %v, want %v", got, want)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"one", "two"}, []string{"one", "two"}, 1},
		{"disjoint", []string{"one"}, []string{"two"}, 0},
		{"half", []string{"one", "two"}, []string{"two", "three"}, 1.0 / 3.0},
		{"both empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Jaccard(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHitRate(t *testing.T) {
	tokens := []string{"recipe", "oven", "terraform", "skillet"}
	got := HitRate(tokens, CookingTokens)
	if math.Abs(got-0.75) > 1e-9 {
		t.Errorf("HitRate = %v, want 0.75", got)
	}
	if HitRate(nil, CookingTokens) != 0 {
		t.Error("HitRate on empty tokens should be 0")
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://www.Example.COM/path", "example.com"},
		{"https://discord.gg/abc", "discord.gg"},
		{"http://sub.example.org", "sub.example.org"},
		{"not a url", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.input); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
