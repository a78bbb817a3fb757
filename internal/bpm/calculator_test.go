package bpm

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/model"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()

	cfg := config.TaxScheduleConfig{}
	if err := cfg.Setup(); err != nil {
		t.Fatalf("can't setup schedule: %s", err)
	}
	calc, err := NewCalculator(cfg)
	if err != nil {
		t.Fatalf("can't build calculator: %s", err)
	}
	return calc
}

func approxEq(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func registrationMonthsAgo(eval time.Time, months int) time.Time {
	return eval.AddDate(0, -months, 0)
}

func TestCalculateReferenceScenarios(t *testing.T) {
	eval := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	calc := newTestCalculator(t)

	tests := []struct {
		name       string
		co2        float64
		fuel       model.FuelType
		ageMonths  int
		gross      float64
		surcharge  float64
		totalGross float64
		rest       float64
	}{
		{
			name: "electric zero emission 24 months",
			co2:  0, fuel: model.Electric, ageMonths: 24,
			gross: 667, surcharge: 0, totalGross: 667, rest: 340.17,
		},
		{
			name: "petrol 95 grams 6 months",
			co2:  95, fuel: model.Petrol, ageMonths: 6,
			gross: 773.88, surcharge: 0, totalGross: 773.88, rest: 588.15,
		},
		{
			name: "diesel 118 grams 46 months",
			co2:  118, fuel: model.Diesel, ageMonths: 46,
			gross: 927.52, surcharge: 5273.76, totalGross: 6201.28, rest: 2294.47,
		},
		{
			name: "diesel 200 grams 60 months",
			co2:  200, fuel: model.Diesel, ageMonths: 60,
			gross: 9279.81, surcharge: 14283.10, totalGross: 23562.91, rest: 7068.87,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.CalculateAt(tt.co2, tt.fuel, registrationMonthsAgo(eval, tt.ageMonths), eval)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if !approxEq(got.GrossBPM, tt.gross) {
				t.Errorf("gross = %g, want %g", got.GrossBPM, tt.gross)
			}
			if !approxEq(got.DieselSurcharge, tt.surcharge) {
				t.Errorf("surcharge = %g, want %g", got.DieselSurcharge, tt.surcharge)
			}
			if !approxEq(got.TotalGrossBPM, tt.totalGross) {
				t.Errorf("total gross = %g, want %g", got.TotalGrossBPM, tt.totalGross)
			}
			if !approxEq(got.RestBPM, tt.rest) {
				t.Errorf("rest = %g, want %g", got.RestBPM, tt.rest)
			}
			if got.VehicleAgeMonths != tt.ageMonths {
				t.Errorf("age = %d months, want %d", got.VehicleAgeMonths, tt.ageMonths)
			}
		})
	}
}

func TestCalculateBracketMonotonicity(t *testing.T) {
	eval := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	reg := registrationMonthsAgo(eval, 12)
	calc := newTestCalculator(t)

	prev := -1.0
	for co2 := 0.0; co2 <= 300; co2++ {
		got, err := calc.CalculateAt(co2, model.Petrol, reg, eval)
		if err != nil {
			t.Fatalf("co2=%g: unexpected error: %s", co2, err)
		}
		if got.TotalGrossBPM < prev {
			t.Fatalf("gross decreased at co2=%g: %g < %g", co2, got.TotalGrossBPM, prev)
		}
		if co2 > 79 && got.TotalGrossBPM <= prev {
			t.Fatalf("gross not strictly increasing at co2=%g", co2)
		}
		prev = got.TotalGrossBPM
	}
}

func TestCalculateAgeMonotonicity(t *testing.T) {
	eval := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	calc := newTestCalculator(t)

	prev := math.Inf(1)
	for age := 0; age <= 150; age++ {
		got, err := calc.CalculateAt(150, model.Petrol, registrationMonthsAgo(eval, age), eval)
		if err != nil {
			t.Fatalf("age=%d: unexpected error: %s", age, err)
		}
		if got.RestBPM > prev {
			t.Fatalf("rest increased at age=%d months: %g > %g", age, got.RestBPM, prev)
		}
		prev = got.RestBPM
	}
}

func TestCalculateZeroEmissionDiesel(t *testing.T) {
	eval := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	calc := newTestCalculator(t)

	got, err := calc.CalculateAt(0, model.Diesel, registrationMonthsAgo(eval, 24), eval)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.DieselSurcharge != 0 {
		t.Errorf("surcharge = %g for zero-emission diesel, want 0", got.DieselSurcharge)
	}
	if !approxEq(got.RestBPM, 340.17) {
		t.Errorf("rest = %g, want 340.17", got.RestBPM)
	}
}

func TestDieselSurchargeThresholdBoundary(t *testing.T) {
	eval := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	reg := registrationMonthsAgo(eval, 1)
	calc := newTestCalculator(t)

	at, err := calc.CalculateAt(70, model.Diesel, reg, eval)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if at.DieselSurcharge != 0 {
		t.Errorf("surcharge = %g at threshold, want 0", at.DieselSurcharge)
	}

	above, err := calc.CalculateAt(71, model.Diesel, reg, eval)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !approxEq(above.DieselSurcharge, 109.87) {
		t.Errorf("surcharge = %g one gram above threshold, want 109.87", above.DieselSurcharge)
	}
}

func TestCalculateInvalidInput(t *testing.T) {
	eval := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	calc := newTestCalculator(t)

	if _, err := calc.CalculateAt(-1, model.Petrol, registrationMonthsAgo(eval, 12), eval); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative co2: got %v, want ErrInvalidInput", err)
	}
	if _, err := calc.CalculateAt(100, model.FuelType("kerosene"), registrationMonthsAgo(eval, 12), eval); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("unknown fuel: got %v, want ErrInvalidInput", err)
	}
	if _, err := calc.CalculateAt(100, model.Petrol, eval.AddDate(1, 0, 0), eval); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("future registration: got %v, want ErrInvalidInput", err)
	}
}

func TestAgeMonths(t *testing.T) {
	tests := []struct {
		name string
		reg  time.Time
		eval time.Time
		want int
	}{
		{
			name: "same month",
			reg:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			eval: time.Date(2026, 6, 28, 0, 0, 0, 0, time.UTC),
			want: 0,
		},
		{
			name: "day of month ignored",
			reg:  time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC),
			eval: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
			want: 1,
		},
		{
			name: "across years",
			reg:  time.Date(2022, 9, 15, 0, 0, 0, 0, time.UTC),
			eval: time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC),
			want: 45,
		},
		{
			name: "year boundary",
			reg:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			eval: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AgeMonths(tt.reg, tt.eval)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if got != tt.want {
				t.Errorf("AgeMonths = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := AgeMonths(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("future registration: got %v, want ErrInvalidInput", err)
	}
}

func TestCalculateUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	cfg := config.TaxScheduleConfig{}
	if err := cfg.Setup(); err != nil {
		t.Fatalf("can't setup schedule: %s", err)
	}
	calc, err := NewCalculatorWithClock(cfg, func() time.Time { return fixed })
	if err != nil {
		t.Fatalf("can't build calculator: %s", err)
	}

	got, err := calc.Calculate(95, model.Petrol, registrationMonthsAgo(fixed, 6))
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.VehicleAgeMonths != 6 {
		t.Errorf("age = %d months, want 6", got.VehicleAgeMonths)
	}
}
