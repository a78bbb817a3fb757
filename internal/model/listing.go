package model

// Comparable is an observed Dutch-market listing used to estimate fair
// value for the subject vehicle. Only price (and mileage, for scoring)
// matter to the engines; the rest is kept for reporting.
type Comparable struct {
	PriceEUR   float64 `json:"price_eur"`
	MileageKM  int     `json:"mileage_km"`
	Year       int     `json:"year,omitempty"`
	Title      string  `json:"title,omitempty"`
	ListingURL string  `json:"listingUrl,omitempty"`
	Source     string  `json:"source,omitempty"`
	Location   string  `json:"location,omitempty"`
}

// MarketStats describes the comparable set after outlier filtering.
type MarketStats struct {
	Count       int     `json:"count"`
	AvgPrice    float64 `json:"avgPrice"`
	MinPrice    float64 `json:"minPrice"`
	MaxPrice    float64 `json:"maxPrice"`
	MedianPrice float64 `json:"medianPrice"`
}
