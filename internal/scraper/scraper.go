// Package scraper retrieves German vehicle listings through Apify
// actors. Actor output is messy and varies per marketplace, so parsing
// is lenient: string coercion, flexible attribute keys and sane
// fallbacks.
package scraper

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/model"
)

const (
	SourceMobileDE    = "mobile.de"
	SourceAutoScoutDE = "autoscout24"
)

var _knownBrands = []string{
	"Mercedes-Benz", "BMW", "Audi", "Volkswagen", "VW", "Porsche",
	"Ford", "Opel", "Skoda", "Seat", "Renault", "Peugeot", "Citroën",
	"Fiat", "Alfa Romeo", "Volvo", "Toyota", "Honda", "Mazda",
	"Nissan", "Hyundai", "Kia", "Lexus", "Mini", "Land Rover",
	"Jaguar", "Jeep", "Tesla", "Chevrolet", "Dodge",
}

// Service is the listing source: it turns a marketplace URL into a
// parsed Listing.
type Service struct {
	apify *ApifyClient
	cfg   config.ScraperConfig

	now func() time.Time

	logger logger.Logger
}

func NewService(apify *ApifyClient, cfg config.ScraperConfig, logger logger.Logger) *Service {
	return &Service{
		apify:  apify,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// DetectSource identifies the marketplace behind a listing URL.
func DetectSource(url string) string {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "mobile.de") {
		return SourceMobileDE
	}
	if strings.Contains(lower, "autoscout24.de") || strings.Contains(lower, "autoscout24.com") {
		return SourceAutoScoutDE
	}
	return ""
}

// ScrapeListing runs the marketplace's actor on the URL and parses the
// first returned item.
func (s *Service) ScrapeListing(ctx context.Context, url string) (model.Listing, error) {
	if s.apify == nil {
		return model.Listing{}, fmt.Errorf("scraping disabled: no apify client configured")
	}

	source := DetectSource(url)

	var actorID string
	switch source {
	case SourceMobileDE:
		actorID = s.cfg.MobileDEActor
	case SourceAutoScoutDE:
		actorID = s.cfg.AutoScoutDEActor
	default:
		return model.Listing{}, fmt.Errorf("%w: unsupported listing url %s", model.ErrInvalidInput, url)
	}

	raw, err := s.apify.RunActorSync(ctx, actorID, map[string]any{
		"startUrls": []map[string]string{{"url": url}},
		"maxItems":  1,
	})
	if err != nil {
		return model.Listing{}, fmt.Errorf("%w: can't scrape listing", err)
	}

	var items []map[string]any
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return model.Listing{}, fmt.Errorf("%w: can't parse actor output", err)
	}
	if len(items) == 0 {
		return model.Listing{}, fmt.Errorf("no items scraped from %s", url)
	}

	listing := s.parseItem(items[0], url, source)
	if listing.PriceEUR <= 0 {
		return model.Listing{}, fmt.Errorf("no usable price scraped from %s", url)
	}

	s.logger.Infof("scraped %s %s (%d) at %g eur from %s",
		listing.Make, listing.Model, listing.Year, listing.PriceEUR, source)

	return listing, nil
}

func (s *Service) parseItem(item map[string]any, url, source string) model.Listing {
	attrs := attributeMap(item)

	title := stringField(item, "title", "name")
	mk, mdl := makeModelFromTitle(title)
	if v := stringField(item, "brand", "make"); v != "" {
		mk = v
	}
	if v := stringField(item, "model", "modelLine"); v != "" {
		mdl = v
	}

	firstReg, year := s.parseFirstRegistration(
		firstNonEmpty(attrValue(attrs, "First Registration", "firstRegistration", "registration"),
			stringField(item, "firstRegistration", "year")))

	mileage := digits(firstNonEmpty(attrValue(attrs, "Mileage", "mileage", "km"), stringField(item, "mileage")))
	price := parsePrice(item["price"])

	fuelRaw := firstNonEmpty(attrValue(attrs, "Fuel", "fuel", "fuelType"), stringField(item, "fuel"), "petrol")
	fuel := model.NormalizeFuelType(fuelRaw)

	transRaw := firstNonEmpty(attrValue(attrs, "Transmission", "transmission", "gearbox"), stringField(item, "transmission"), "automatic")
	trans := model.NormalizeTransmission(transRaw)

	co2 := estimateCO2(attrValue(attrs, "Power", "power", "kW"), fuel)

	if title == "" {
		title = strings.TrimSpace(mk + " " + mdl)
	}

	return model.Listing{
		Make:                  mk,
		Model:                 mdl,
		Year:                  year,
		MileageKM:             mileage,
		PriceEUR:              float64(price),
		FuelType:              fuel,
		Transmission:          trans,
		CO2GKM:                co2,
		FirstRegistrationDate: firstReg,
		ListingURL:            url,
		Source:                source,
		Title:                 title,
		Features:              stringSlice(item, "features", "equipment"),
		Attributes:            attrs,
	}
}

// parseFirstRegistration handles "09/2016", "2016/09", "2016-09" and a
// bare "2016". An unparseable value falls back to now.
func (s *Service) parseFirstRegistration(raw string) (time.Time, int) {
	now := s.now()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now, now.Year()
	}

	var year, month int
	switch {
	case strings.Contains(raw, "/"):
		parts := strings.SplitN(raw, "/", 2)
		a, errA := strconv.Atoi(parts[0])
		b, errB := strconv.Atoi(parts[1])
		if errA != nil || errB != nil {
			return now, now.Year()
		}
		if len(parts[0]) == 4 {
			year, month = a, b
		} else {
			year, month = b, a
		}
	case strings.Contains(raw, "-"):
		parts := strings.Split(raw, "-")
		a, errA := strconv.Atoi(parts[0])
		if errA != nil {
			return now, now.Year()
		}
		year, month = a, 1
		if len(parts) > 1 {
			if b, err := strconv.Atoi(parts[1]); err == nil {
				month = b
			}
		}
	case len(raw) == 4:
		a, err := strconv.Atoi(raw)
		if err != nil {
			return now, now.Year()
		}
		year, month = a, 1
	default:
		return now, now.Year()
	}

	if year < 1900 || month < 1 || month > 12 {
		return now, now.Year()
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), year
}

func makeModelFromTitle(title string) (string, string) {
	if title == "" {
		return "Unknown", "Unknown"
	}

	lower := strings.ToLower(title)
	for _, brand := range _knownBrands {
		if strings.HasPrefix(lower, strings.ToLower(brand)) {
			rest := strings.Fields(strings.TrimSpace(title[len(brand):]))
			if len(rest) > 3 {
				rest = rest[:3]
			}
			if len(rest) == 0 {
				return brand, "Unknown"
			}
			return brand, strings.Join(rest, " ")
		}
	}

	parts := strings.Fields(title)
	mk, mdl := "Unknown", "Unknown"
	if len(parts) >= 1 {
		mk = parts[0]
	}
	if len(parts) >= 2 {
		end := min(3, len(parts))
		mdl = strings.Join(parts[1:end], " ")
	}
	return mk, mdl
}

// parsePrice survives the actor's known price glitches: formatted
// strings, and values where the digits appear twice concatenated.
func parsePrice(raw any) int {
	if raw == nil {
		return 0
	}

	ds := digitString(fmt.Sprintf("%v", raw))
	if ds == "" {
		return 0
	}

	price := 0
	if len(ds) >= 8 && len(ds)%2 == 0 && ds[:len(ds)/2] == ds[len(ds)/2:] {
		price, _ = strconv.Atoi(ds[:len(ds)/2])
	} else {
		price, _ = strconv.Atoi(ds[:min(6, len(ds))])
	}

	if price < 100 || price > 500000 {
		return 0
	}
	return price
}

// estimateCO2 derives an emission estimate from engine power when the
// listing carries no CO2 figure, which is the norm on these actors.
func estimateCO2(powerRaw string, fuel model.FuelType) float64 {
	if fuel == model.Electric {
		return 0
	}

	co2 := 150.0
	kwPart := strings.SplitN(powerRaw, "kW", 2)[0]
	if kw := digits(kwPart); kw > 0 {
		if fuel == model.Diesel {
			co2 = clampF(float64(kw)*1.0, 100, 250)
		} else {
			co2 = clampF(float64(kw)*1.3, 100, 300)
		}
	}
	return co2
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func attributeMap(item map[string]any) map[string]string {
	raw, ok := item["attributes"].(map[string]any)
	if !ok {
		return map[string]string{}
	}
	attrs := make(map[string]string, len(raw))
	for k, v := range raw {
		attrs[k] = fmt.Sprintf("%v", v)
	}
	return attrs
}

func attrValue(attrs map[string]string, keys ...string) string {
	for _, key := range keys {
		if v, ok := attrs[key]; ok && v != "" {
			return v
		}
		for k, v := range attrs {
			if strings.EqualFold(k, key) && v != "" {
				return v
			}
		}
	}
	return ""
}

func stringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := item[key]; ok && v != nil {
			if s := strings.TrimSpace(fmt.Sprintf("%v", v)); s != "" && s != "<nil>" {
				return s
			}
		}
	}
	return ""
}

func stringSlice(item map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := item[key].([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, v := range raw {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func digits(s string) int {
	n, _ := strconv.Atoi(digitString(s))
	return n
}

func digitString(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
