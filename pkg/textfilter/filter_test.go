package textfilter

import (
	"reflect"
	"testing"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "drops stop words and short words",
			input:    "The player gave her a silver ring at the market",
			expected: []string{"player", "gave", "silver", "ring", "market"},
		},
		{
			name:     "folds case and dedupes",
			input:    "Rival! RIVAL praised, rival",
			expected: []string{"rival", "praised"},
		},
		{
			name:     "keeps underscored ids",
			input:    "met at old_mill",
			expected: []string{"met", "old_mill"},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Keywords(%q) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFoldAndTitle(t *testing.T) {
	if got := Fold("  Mira "); got != "mira" {
		t.Errorf("Fold() = %q", got)
	}
	if got := Title("evening"); got != "Evening" {
		t.Errorf("Title() = %q", got)
	}
}

func TestTabooFilter(t *testing.T) {
	filter := NewTabooFilter([]string{"war", "her brother", "", "War"})

	tests := []struct {
		name     string
		input    string
		contains bool
		redacted string
	}{
		{
			name:     "single word",
			input:    "She never talks about the war.",
			contains: true,
			redacted: "She never talks about the [withheld].",
		},
		{
			name:     "phrase, case insensitive",
			input:    "Her Brother left at dawn",
			contains: true,
			redacted: "[withheld] left at dawn",
		},
		{
			name:     "word boundaries",
			input:    "The warden and the software",
			contains: false,
			redacted: "The warden and the software",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Contains(tt.input); got != tt.contains {
				t.Errorf("Contains(%q) = %v, expected %v", tt.input, got, tt.contains)
			}
			if got := filter.Redact(tt.input, "[withheld]"); got != tt.redacted {
				t.Errorf("Redact(%q) = %q, expected %q", tt.input, got, tt.redacted)
			}
		})
	}

	if got := filter.Matches("the war took her brother"); !reflect.DeepEqual(got, []string{"her brother", "war"}) {
		t.Errorf("Matches() = %v", got)
	}
}

func TestContainsTaboo(t *testing.T) {
	if ContainsTaboo("anything at all", nil) {
		t.Error("no taboos should never match")
	}
	if !ContainsTaboo("Do you remember the FIRE?", []string{"the fire"}) {
		t.Error("expected case-insensitive match")
	}
	if ContainsTaboo("a fireplace", []string{"fire"}) {
		t.Error("partial word should not match")
	}
}
