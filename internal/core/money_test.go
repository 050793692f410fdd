package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "12", 1200, false},
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"one decimal", "12.5", 1250, false},
		{"leading dot", ".50", 50, false},
		{"third decimal rounds up", "1.005", 101, false},
		{"third decimal rounds down", "1.004", 100, false},
		{"surrounding spaces", " 9.99 ", 999, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"zero decimal", "0.00", 0, true},
		{"negative", "-5", 0, true},
		{"explicit plus", "+5", 0, true},
		{"letters", "abc", 0, true},
		{"two separators", "1.2.3", 0, true},
		{"digit then letters", "12x", 0, true},
		{"overflow", "99999999999999999999", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoney_String(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{50, "0.50"},
		{5, "0.05"},
		{0, "0.00"},
		{-1234, "-12.34"},
		{100000, "1000.00"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoney_Float(t *testing.T) {
	if got := (Money{Cents: 1234}).Float(); got != 12.34 {
		t.Errorf("Float() = %v, want 12.34", got)
	}
}
