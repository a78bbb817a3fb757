package model

import (
	"strings"
	"time"
)

type FuelType string

const (
	Petrol   FuelType = "petrol"
	Diesel   FuelType = "diesel"
	Electric FuelType = "electric"
	Hybrid   FuelType = "hybrid"
	LPG      FuelType = "lpg"
)

func (f FuelType) Valid() bool {
	switch f {
	case Petrol, Diesel, Electric, Hybrid, LPG:
		return true
	default:
		return false
	}
}

var (
	_dieselTerms   = []string{"diesel"}
	_petrolTerms   = []string{"petrol", "benzine", "gasoline"}
	_electricTerms = []string{"electric", "elektrisch", "elektro", "ev"}
	_hybridTerms   = []string{"hybrid", "hybride", "phev"}
	_lpgTerms      = []string{"lpg", "gas", "autogas"}
)

// NormalizeFuelType maps raw marketplace fuel strings ("Diesel (Diesel)",
// "Benzine", "Elektro", ...) onto the fuel enum. Unknown values default to
// petrol; this leniency belongs at the scraping boundary only, the
// calculators reject anything outside the enum.
func NormalizeFuelType(raw string) FuelType {
	fuel := strings.ToLower(strings.TrimSpace(raw))

	for _, term := range _dieselTerms {
		if strings.Contains(fuel, term) {
			return Diesel
		}
	}
	// Hybrids mention their electric side ("Hybrid (Benzin/Elektro)"),
	// so the hybrid terms go before the electric ones.
	for _, term := range _hybridTerms {
		if strings.Contains(fuel, term) {
			return Hybrid
		}
	}
	for _, term := range _petrolTerms {
		if strings.Contains(fuel, term) {
			return Petrol
		}
	}
	for _, term := range _electricTerms {
		if strings.Contains(fuel, term) {
			return Electric
		}
	}
	for _, term := range _lpgTerms {
		if strings.Contains(fuel, term) {
			return LPG
		}
	}

	return Petrol
}

type Transmission string

const (
	Automatic Transmission = "automatic"
	Manual    Transmission = "manual"
)

var (
	_automaticTerms = []string{"automatic", "automatik", "automaat", "auto", "dsg", "tiptronic", "s tronic"}
	_manualTerms    = []string{"manual", "manuell", "handgeschakeld", "schaltgetriebe"}
)

// NormalizeTransmission maps raw transmission strings onto the enum,
// defaulting to automatic.
func NormalizeTransmission(raw string) Transmission {
	trans := strings.ToLower(strings.TrimSpace(raw))

	for _, term := range _automaticTerms {
		if strings.Contains(trans, term) {
			return Automatic
		}
	}
	for _, term := range _manualTerms {
		if strings.Contains(trans, term) {
			return Manual
		}
	}

	return Automatic
}

// Listing is a vehicle offer on a German marketplace, the subject of an
// import-margin analysis.
type Listing struct {
	Make                  string            `json:"make"`
	Model                 string            `json:"model"`
	Year                  int               `json:"year"`
	MileageKM             int               `json:"mileage_km"`
	PriceEUR              float64           `json:"price_eur"`
	FuelType              FuelType          `json:"fuelType"`
	Transmission          Transmission      `json:"transmission"`
	CO2GKM                float64           `json:"co2_gkm"`
	FirstRegistrationDate time.Time         `json:"firstRegistrationDate"`
	ListingURL            string            `json:"listingUrl"`
	Source                string            `json:"source"`
	Title                 string            `json:"title"`
	Features              []string          `json:"features,omitempty"`
	Attributes            map[string]string `json:"attributes,omitempty"`
}
