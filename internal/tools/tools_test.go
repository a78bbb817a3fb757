package tools

import "testing"

func TestRoundCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.004, 1.00},
		{1.005, 1.01},
		{1.015, 1.02},
		{-1.005, -1.01},
		{2294.4736, 2294.47},
		{588.1488, 588.15},
		{0, 0},
	}

	for _, tt := range tests {
		if got := RoundCurrency(tt.in); got != tt.want {
			t.Errorf("RoundCurrency(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestRoundEuro(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{11000.4, 11000},
		{11000.5, 11001},
		{-10.5, -11},
		{24000, 24000},
	}

	for _, tt := range tests {
		if got := RoundEuro(tt.in); got != tt.want {
			t.Errorf("RoundEuro(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestFormatEUR(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "€0"},
		{950, "€950"},
		{12500, "€12.500"},
		{1234567, "€1.234.567"},
		{-2500, "€-2.500"},
		{11000.6, "€11.001"},
	}

	for _, tt := range tests {
		if got := FormatEUR(tt.in); got != tt.want {
			t.Errorf("FormatEUR(%g) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
