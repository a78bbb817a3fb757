// Package valuation refines the market-value estimate through an LLM
// appraiser on OpenRouter. It is an optional strategy: when it fails,
// it degrades to the market average and finally to a markup over the
// German asking price, never to an error.
package valuation

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/tools"
)

const _completionsURL = "/api/v1/chat/completions"

const _systemPrompt = "You are an expert vehicle appraiser for the Dutch used-car market. Always answer in valid JSON."

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type Service struct {
	c   *resty.Client
	cfg config.ValuationConfig

	logger logger.Logger
}

func NewService(cfg config.ValuationConfig, apiKey string, logger logger.Logger) *Service {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(apiKey).
		SetHeader("HTTP-Referer", "https://driving-passion.nl").
		SetHeader("X-Title", "Driving Passion Auto Import Calculator")

	return &Service{
		c:      client,
		cfg:    cfg,
		logger: logger,
	}
}

// Valuate asks the model for a retail and a quick-sale price for the
// subject vehicle given the Dutch comparables.
func (s *Service) Valuate(ctx context.Context, listing model.Listing, comparables []model.Comparable) (model.Valuation, error) {
	valuation, err := s.callModel(ctx, listing, comparables)
	if err == nil {
		return valuation, nil
	}
	s.logger.Errorf("%s: ai valuation failed, falling back", err)

	if len(comparables) > 0 {
		sum := 0.0
		for _, c := range comparables {
			sum += c.PriceEUR
		}
		avg := tools.RoundEuro(sum / float64(len(comparables)))
		return model.Valuation{
			EstimatedRetailPrice:    avg,
			EstimatedQuickSalePrice: tools.RoundEuro(avg * 0.9),
			Confidence:              0.3,
			Reasoning:               "AI valuation unavailable, estimated from the market average.",
		}, nil
	}

	return model.Valuation{
		EstimatedRetailPrice:    tools.RoundEuro(listing.PriceEUR * 1.15),
		EstimatedQuickSalePrice: tools.RoundEuro(listing.PriceEUR * 1.05),
		Confidence:              0.2,
		Reasoning:               "No market data available, rough estimate from the German asking price.",
	}, nil
}

func (s *Service) callModel(ctx context.Context, listing model.Listing, comparables []model.Comparable) (model.Valuation, error) {
	resp, err := s.c.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: s.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: _systemPrompt},
				{Role: "user", Content: s.buildPrompt(listing, comparables)},
			},
			Temperature: s.cfg.Temperature,
			MaxTokens:   1000,
		}).
		SetResult(&chatResponse{}).
		SetError(&chatError{}).
		Post(_completionsURL)
	if err != nil {
		return model.Valuation{}, fmt.Errorf("%w: can't call openrouter", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		if e, ok := resp.Error().(*chatError); ok && e.Error.Message != "" {
			return model.Valuation{}, fmt.Errorf("openrouter error: %s", e.Error.Message)
		}
		return model.Valuation{}, fmt.Errorf("openrouter error: %s", resp.Status())
	}

	chat := resp.Result().(*chatResponse)
	if len(chat.Choices) == 0 {
		return model.Valuation{}, fmt.Errorf("empty openrouter response")
	}

	var valuation model.Valuation
	content := stripCodeFence(chat.Choices[0].Message.Content)
	if err := sonic.UnmarshalString(content, &valuation); err != nil {
		return model.Valuation{}, fmt.Errorf("%w: can't parse valuation json", err)
	}
	if valuation.EstimatedRetailPrice <= 0 {
		return model.Valuation{}, fmt.Errorf("valuation without a retail price")
	}

	return valuation, nil
}

func (s *Service) buildPrompt(listing model.Listing, comparables []model.Comparable) string {
	var b strings.Builder

	fmt.Fprintf(&b, "TARGET VEHICLE:\n")
	fmt.Fprintf(&b, "- Make/Model: %s %s\n", listing.Make, listing.Model)
	fmt.Fprintf(&b, "- Year: %d\n", listing.Year)
	fmt.Fprintf(&b, "- Mileage: %d km\n", listing.MileageKM)
	fmt.Fprintf(&b, "- Fuel: %s\n", listing.FuelType)
	fmt.Fprintf(&b, "- Transmission: %s\n", listing.Transmission)
	fmt.Fprintf(&b, "- CO2: %g g/km\n", listing.CO2GKM)
	fmt.Fprintf(&b, "- First registration: %s\n", listing.FirstRegistrationDate.Format("01/2006"))
	fmt.Fprintf(&b, "- German asking price: %s\n\n", tools.FormatEUR(listing.PriceEUR))

	b.WriteString("OPTIONS/EQUIPMENT:\n")
	if len(listing.Features) == 0 {
		b.WriteString("No specific options known\n")
	}
	for i, f := range listing.Features {
		if i >= 20 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", f)
	}

	b.WriteString("\nCOMPARABLE CARS ON THE DUTCH MARKET:\n")
	if len(comparables) == 0 {
		b.WriteString("No comparable cars found on the Dutch market.\n")
	}
	for i, c := range comparables {
		if i >= s.cfg.MaxComparables {
			break
		}
		fmt.Fprintf(&b, "%d. %s - %s - %d km", i+1, c.Title, tools.FormatEUR(c.PriceEUR), c.MileageKM)
		if c.Location != "" {
			fmt.Fprintf(&b, " - %s", c.Location)
		}
		b.WriteString("\n")
	}

	b.WriteString(`
TASK:
Give a realistic valuation of this vehicle on the Dutch market:
1. Compare against the listed comparable cars
2. Account for the options and equipment
3. Give both a retail (showroom) price and a quick-sale (trade) price

Answer ONLY in this exact JSON format:
{
    "estimatedRetailPrice": <number>,
    "estimatedQuickSalePrice": <number>,
    "confidence": <0.0-1.0>,
    "reasoning": "<short explanation>",
    "pros": ["<pro 1>", "<pro 2>"],
    "cons": ["<con 1>", "<con 2>"]
}`)

	return b.String()
}

func stripCodeFence(content string) string {
	if idx := strings.Index(content, "```json"); idx >= 0 {
		content = content[idx+len("```json"):]
	} else if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[idx+3:]
	}
	if idx := strings.Index(content, "```"); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}
