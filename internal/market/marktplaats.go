package market

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/driving-passion/import-bot/internal/model"
)

const _marktplaatsSource = "marktplaats"

var _marktplaatsFuels = map[model.FuelType]string{
	model.Petrol:   "benzine",
	model.Diesel:   "diesel",
	model.Electric: "elektrisch",
	model.Hybrid:   "hybride",
	model.LPG:      "lpg",
}

var (
	_nonDigitRe = regexp.MustCompile(`[^\d]`)
	_yearRe     = regexp.MustCompile(`\d{4}`)
)

// BuildMarktplaatsSearchURL builds the Marktplaats auto search URL fed
// to the Apify actor.
func BuildMarktplaatsSearchURL(listing model.Listing) string {
	baseModel, _ := ExtractModelVariant(listing.Model)

	minKM := int(float64(listing.MileageKM) * 0.8)
	maxKM := int(float64(listing.MileageKM) * 1.2)

	params := []string{
		"q=" + url.QueryEscape(listing.Make+" "+baseModel),
		fmt.Sprintf("attributesByKey[]=constructionYear%%3A%d%%7C%d", listing.Year-1, listing.Year+1),
		fmt.Sprintf("attributesByKey[]=mileage%%3A%d%%7C%d", minKM, maxKM),
	}
	if fuel, ok := _marktplaatsFuels[listing.FuelType]; ok {
		params = append(params, "attributesByKey[]=fuel%3A"+fuel)
	}

	return "https://www.marktplaats.nl/l/auto-s/?" + strings.Join(params, "&")
}

func (s *Service) searchMarktplaats(ctx context.Context, listing model.Listing) ([]model.Comparable, error) {
	raw, err := s.apify.RunActorSync(ctx, s.scraperCfg.MarktplaatsActor, map[string]any{
		"startUrls": []map[string]string{{"url": BuildMarktplaatsSearchURL(listing)}},
		"maxItems":  s.cfg.MaxComparables,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: can't search marktplaats", err)
	}

	var items []map[string]any
	if err := sonic.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: can't parse marktplaats actor output", err)
	}

	return ParseMarktplaatsItems(items), nil
}

// ParseMarktplaatsItems copes with the actor's inconsistent output:
// prices as strings, cents, or plain numbers; mileage and year under
// varying keys. Items without a plausible price are dropped.
func ParseMarktplaatsItems(items []map[string]any) []model.Comparable {
	comparables := make([]model.Comparable, 0, len(items))

	for _, item := range items {
		price := marktplaatsPrice(item)
		if price <= 0 || price > 500000 {
			continue
		}

		comparables = append(comparables, model.Comparable{
			PriceEUR:   price,
			MileageKM:  numericField(item, "mileage"),
			Year:       yearField(item),
			Title:      anyString(item["title"], item["name"]),
			ListingURL: anyString(item["url"], item["link"]),
			Source:     _marktplaatsSource,
			Location:   locationField(item),
		})
	}

	return comparables
}

func marktplaatsPrice(item map[string]any) float64 {
	switch v := item["price"].(type) {
	case string:
		clean := _nonDigitRe.ReplaceAllString(v, "")
		p, _ := strconv.ParseFloat(clean, 64)
		return p
	case float64:
		return v
	case map[string]any:
		if cents, ok := v["priceCents"].(float64); ok {
			return cents / 100
		}
	}

	if info, ok := item["priceInfo"].(map[string]any); ok {
		if cents, ok := info["priceCents"].(float64); ok {
			return cents / 100
		}
	}
	return 0
}

func numericField(item map[string]any, key string) int {
	value := item[key]
	if value == nil {
		if attrs, ok := item["attributes"].(map[string]any); ok {
			value = attrs[key]
		}
	}

	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(_nonDigitRe.ReplaceAllString(v, ""))
		return n
	}
	return 0
}

func yearField(item map[string]any) int {
	value := item["year"]
	if value == nil {
		if attrs, ok := item["attributes"].(map[string]any); ok {
			value = attrs["constructionYear"]
		}
	}

	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if m := _yearRe.FindString(v); m != "" {
			y, _ := strconv.Atoi(m)
			return y
		}
	}
	return 0
}

func locationField(item map[string]any) string {
	switch v := item["location"].(type) {
	case string:
		return v
	case map[string]any:
		return anyString(v["cityName"], v["city"])
	}
	return anyString(item["sellerLocation"])
}

func anyString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
