package market

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/driving-passion/import-bot/internal/model"
)

const _autoscoutSource = "autoscout24"

var _nextDataRe = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__" type="application/json">(.*?)</script>`)

var _autoscoutFuelCodes = map[model.FuelType]string{
	model.Petrol:   "B",
	model.Diesel:   "D",
	model.Electric: "E",
	model.Hybrid:   "2",
	model.LPG:      "L",
}

var _autoscoutGearCodes = map[model.Transmission]string{
	model.Automatic: "A",
	model.Manual:    "M",
}

type nextData struct {
	Props struct {
		PageProps struct {
			Listings []struct {
				ID    string `json:"id"`
				Title string `json:"title"`
				Price struct {
					Value float64 `json:"value"`
				} `json:"price"`
				Mileage  float64 `json:"mileage"`
				Year     float64 `json:"year"`
				Location struct {
					City string `json:"city"`
				} `json:"location"`
			} `json:"listings"`
		} `json:"pageProps"`
	} `json:"props"`
}

// BuildAutoScoutSearchPath builds the AutoScout24 NL search path for
// comparables of the subject: same make/model, year within one, mileage
// within 20%, matching fuel and gearbox, Dutch offers sorted by price.
func BuildAutoScoutSearchPath(listing model.Listing) string {
	makeSlug := slugify(listing.Make)
	baseModel, _ := ExtractModelVariant(listing.Model)
	modelSlug := slugify(baseModel)

	params := []string{
		fmt.Sprintf("fregfrom=%d", listing.Year-1),
		fmt.Sprintf("fregto=%d", listing.Year+1),
		fmt.Sprintf("kmfrom=%d", int(float64(listing.MileageKM)*0.8)),
		fmt.Sprintf("kmto=%d", int(float64(listing.MileageKM)*1.2)),
	}
	if code, ok := _autoscoutFuelCodes[listing.FuelType]; ok {
		params = append(params, "fuel="+code)
	}
	if code, ok := _autoscoutGearCodes[listing.Transmission]; ok {
		params = append(params, "gear="+code)
	}
	params = append(params, "sort=price", "desc=0", "cy=NL")

	return fmt.Sprintf("/lst/%s/%s?%s", makeSlug, modelSlug, strings.Join(params, "&"))
}

func (s *Service) searchAutoScout(ctx context.Context, listing model.Listing) ([]model.Comparable, error) {
	path := BuildAutoScoutSearchPath(listing)

	s.rateLimiter.Take()
	resp, err := s.asClient.R().
		SetContext(ctx).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36").
		SetHeader("Accept", "text/html,application/xhtml+xml").
		SetHeader("Accept-Language", "nl-NL,nl;q=0.9").
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: can't fetch autoscout search", err)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("autoscout search failed: %s", resp.Status())
	}

	return ParseAutoScoutResults(resp.String(), s.cfg.AutoScoutBaseURL), nil
}

// ParseAutoScoutResults pulls comparables out of the search page's
// embedded __NEXT_DATA__ JSON. Pages without it yield no comparables,
// not an error.
func ParseAutoScoutResults(html, baseURL string) []model.Comparable {
	match := _nextDataRe.FindStringSubmatch(html)
	if match == nil {
		return nil
	}

	var data nextData
	if err := sonic.UnmarshalString(match[1], &data); err != nil {
		return nil
	}

	listings := data.Props.PageProps.Listings
	comparables := make([]model.Comparable, 0, len(listings))
	for _, l := range listings {
		if l.Price.Value <= 0 {
			continue
		}
		url := ""
		if l.ID != "" {
			url = baseURL + "/aanbod/" + l.ID
		}
		comparables = append(comparables, model.Comparable{
			PriceEUR:   l.Price.Value,
			MileageKM:  int(l.Mileage),
			Year:       int(l.Year),
			Title:      l.Title,
			ListingURL: url,
			Source:     _autoscoutSource,
			Location:   l.Location.City,
		})
	}

	return comparables
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
