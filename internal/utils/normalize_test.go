package utils

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "Half-Life", "half-life"},
		{"accents removed", "Pokémon Émeraude", "pokemon emeraude"},
		{"whitespace collapsed", "  The  Witcher   3 ", "the witcher 3"},
		{"mixed case", "DOOM Eternal", "doom eternal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.expected {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSameGameName(t *testing.T) {
	if !SameGameName("Pokémon", "pokemon") {
		t.Error("accented and plain spelling should match")
	}
	if SameGameName("Portal", "Portal 2") {
		t.Error("different titles should not match")
	}
}
