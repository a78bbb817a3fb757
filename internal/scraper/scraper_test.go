package scraper

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/model"
)

func newTestService() *Service {
	cfg := config.ScraperConfig{}
	_ = cfg.Setup()

	s := NewService(nil, cfg, nil)
	s.now = func() time.Time {
		return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	}
	return s
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://suchen.mobile.de/fahrzeuge/details.html?id=123", SourceMobileDE},
		{"https://www.autoscout24.de/angebote/audi-rs6", SourceAutoScoutDE},
		{"https://www.autoscout24.com/offers/bmw-320d", SourceAutoScoutDE},
		{"https://www.marktplaats.nl/a/123", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DetectSource(tt.url); got != tt.want {
			t.Errorf("DetectSource(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestScrapeListingWithoutClient(t *testing.T) {
	s := newTestService()

	_, err := s.ScrapeListing(context.Background(), "https://suchen.mobile.de/fahrzeuge/details.html?id=123")
	if err == nil {
		t.Fatal("ScrapeListing without an apify client: expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no apify client") {
		t.Errorf("ScrapeListing without an apify client: got %v", err)
	}
}

func TestParseFirstRegistration(t *testing.T) {
	s := newTestService()

	tests := []struct {
		raw       string
		wantYear  int
		wantMonth time.Month
	}{
		{"09/2016", 2016, time.September},
		{"2016/09", 2016, time.September},
		{"2016-09", 2016, time.September},
		{"2016-09-15", 2016, time.September},
		{"2016", 2016, time.January},
	}

	for _, tt := range tests {
		got, year := s.parseFirstRegistration(tt.raw)
		if got.Year() != tt.wantYear || got.Month() != tt.wantMonth {
			t.Errorf("parseFirstRegistration(%q) = %s", tt.raw, got.Format("2006-01"))
		}
		if year != tt.wantYear {
			t.Errorf("parseFirstRegistration(%q) year = %d, want %d", tt.raw, year, tt.wantYear)
		}
	}

	// Garbage falls back to the clock.
	for _, raw := range []string{"", "unknown", "ab/cd", "189"} {
		got, year := s.parseFirstRegistration(raw)
		if !got.Equal(s.now()) || year != 2026 {
			t.Errorf("parseFirstRegistration(%q) = (%s, %d), want fallback to now", raw, got, year)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  any
		want int
	}{
		{"€ 24.500,-", 24500},
		{"24500", 24500},
		{float64(24500), 24500},
		{"2450024500", 24500},
		{"Preis auf Anfrage", 0},
		{nil, 0},
		{"50", 0},
		{"9999999", 0},
	}

	for _, tt := range tests {
		if got := parsePrice(tt.raw); got != tt.want {
			t.Errorf("parsePrice(%v) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestEstimateCO2(t *testing.T) {
	tests := []struct {
		power string
		fuel  model.FuelType
		want  float64
	}{
		{"110 kW (150 PS)", model.Diesel, 110},
		{"110 kW (150 PS)", model.Petrol, 143},
		{"300 kW (408 PS)", model.Diesel, 250},
		{"300 kW (408 PS)", model.Petrol, 300},
		{"30 kW", model.Petrol, 100},
		{"", model.Petrol, 150},
		{"441 kW", model.Electric, 0},
	}

	for _, tt := range tests {
		if got := estimateCO2(tt.power, tt.fuel); math.Abs(got-tt.want) > 0.01 {
			t.Errorf("estimateCO2(%q, %s) = %g, want %g", tt.power, tt.fuel, got, tt.want)
		}
	}
}

func TestMakeModelFromTitle(t *testing.T) {
	tests := []struct {
		title     string
		wantMake  string
		wantModel string
	}{
		{"Volkswagen Golf 2.0 TDI Highline DSG", "Volkswagen", "Golf 2.0 TDI"},
		{"Mercedes-Benz C 220 d T-Modell", "Mercedes-Benz", "C 220 d"},
		{"Audi RS6 Avant", "Audi", "RS6 Avant"},
		{"Lada Niva 4x4", "Lada", "Niva 4x4"},
		{"", "Unknown", "Unknown"},
	}

	for _, tt := range tests {
		mk, mdl := makeModelFromTitle(tt.title)
		if mk != tt.wantMake || mdl != tt.wantModel {
			t.Errorf("makeModelFromTitle(%q) = (%q, %q), want (%q, %q)",
				tt.title, mk, mdl, tt.wantMake, tt.wantModel)
		}
	}
}

func TestParseItem(t *testing.T) {
	s := newTestService()

	item := map[string]any{
		"title": "Volkswagen Golf 2.0 TDI Highline",
		"price": "€ 18.950,-",
		"attributes": map[string]any{
			"First Registration": "06/2021",
			"Mileage":            "78.500 km",
			"Fuel":               "Diesel",
			"Transmission":       "Automatik",
			"Power":              "110 kW (150 PS)",
		},
		"features": []any{"Navigation", "Leder", "Panoramadach"},
	}

	listing := s.parseItem(item, "https://suchen.mobile.de/abc", SourceMobileDE)

	if listing.Make != "Volkswagen" {
		t.Errorf("make = %s", listing.Make)
	}
	if listing.Model != "Golf 2.0 TDI" {
		t.Errorf("model = %s", listing.Model)
	}
	if listing.PriceEUR != 18950 {
		t.Errorf("price = %g, want 18950", listing.PriceEUR)
	}
	if listing.MileageKM != 78500 {
		t.Errorf("mileage = %d, want 78500", listing.MileageKM)
	}
	if listing.Year != 2021 {
		t.Errorf("year = %d, want 2021", listing.Year)
	}
	if listing.FuelType != model.Diesel {
		t.Errorf("fuel = %s, want diesel", listing.FuelType)
	}
	if listing.Transmission != model.Automatic {
		t.Errorf("transmission = %s, want automatic", listing.Transmission)
	}
	if listing.CO2GKM != 110 {
		t.Errorf("co2 = %g, want 110 (diesel kW estimate)", listing.CO2GKM)
	}
	if !listing.FirstRegistrationDate.Equal(time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first registration = %s", listing.FirstRegistrationDate)
	}
	if len(listing.Features) != 3 {
		t.Errorf("features = %v", listing.Features)
	}
	if listing.Source != SourceMobileDE {
		t.Errorf("source = %s", listing.Source)
	}
}
