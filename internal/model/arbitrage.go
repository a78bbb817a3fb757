package model

type Recommendation string

const (
	Go       Recommendation = "GO"
	Consider Recommendation = "CONSIDER"
	NoGo     Recommendation = "NO_GO"
)

// CostBreakdown lists every cost line of an import: the German purchase
// price, the payable BPM and the fixed import cost items.
type CostBreakdown struct {
	GermanPrice      float64 `json:"germanPrice"`
	BPM              float64 `json:"bpm"`
	Transport        float64 `json:"transport"`
	RDWInspection    float64 `json:"rdwInspection"`
	LicensePlates    float64 `json:"licensePlates"`
	HandlingFee      float64 `json:"handlingFee"`
	NAPCheck         float64 `json:"napCheck"`
	Other            float64 `json:"other,omitempty"`
	TotalImportCosts float64 `json:"totalImportCosts"`
	TotalCost        float64 `json:"totalCost"`
}

// ArbitrageResult is the profitability verdict for importing one listing.
// SafeMargin equals Margin unless a quick-sale estimate was supplied, in
// which case it is the margin at the quick-sale price.
type ArbitrageResult struct {
	ListingPriceEUR      float64        `json:"listingPriceEur"`
	EstimatedMarketValue float64        `json:"estimatedMarketValue"`
	ComparablesUsed      int            `json:"comparablesUsed"`
	Tax                  TaxResult      `json:"tax"`
	Costs                CostBreakdown  `json:"costs"`
	Margin               float64        `json:"margin"`
	MarginPercentage     float64        `json:"marginPercentage"`
	SafeMargin           float64        `json:"safeMargin"`
	Recommendation       Recommendation `json:"recommendation"`
}

// Valuation is an AI-refined market estimate: a showroom retail price
// and a trade quick-sale price.
type Valuation struct {
	EstimatedRetailPrice    float64  `json:"estimatedRetailPrice"`
	EstimatedQuickSalePrice float64  `json:"estimatedQuickSalePrice"`
	Confidence              float64  `json:"confidence"`
	Reasoning               string   `json:"reasoning,omitempty"`
	Pros                    []string `json:"pros,omitempty"`
	Cons                    []string `json:"cons,omitempty"`
}
