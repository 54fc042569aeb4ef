package utils

import (
	"reflect"
	"testing"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"GOOGL", "GOOGL"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTicker(tt.in); got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSymbolGuesses(t *testing.T) {
	tests := []struct {
		name    string
		company string
		want    []string
	}{
		{"single word", "Accenture", []string{"ACCE", "ACC"}},
		{"short name", "SAP", []string{"SAP"}},
		// Despaced prefix of "PALOALTO" collides with "PALO" and is deduped.
		{"with space", "Palo Alto", []string{"PALO", "PAL"}},
		// Despacing changes the four-letter prefix.
		{"space inside prefix", "A B Corp", []string{"A B ", "A B", "ABCO"}},
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SymbolGuesses(tt.company); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SymbolGuesses(%q) = %v, want %v", tt.company, got, tt.want)
			}
		})
	}
}
