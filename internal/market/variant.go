package market

import (
	"strings"
)

var _rsModels = map[string]string{
	"rsq3": "RS Q3",
	"rsq5": "RS Q5",
	"rsq7": "RS Q7",
	"rsq8": "RS Q8",
	"rs3":  "RS3",
	"rs4":  "RS4",
	"rs5":  "RS5",
	"rs6":  "RS6",
	"rs7":  "RS7",
}

var _engineIndicators = []string{
	"tdi", "tsi", "tfsi", "fsi", "gti", "gtd", "rs", "amg",
	"xdrive", "4matic", "quattro", "e-tron", "phev", "hybrid",
	"d", "i", "e", "s", "m",
}

var _trimLevels = []string{
	"highline", "comfortline", "trendline", "style", "sport",
	"business", "executive", "luxury", "premium", "edition",
	"line", "pack", "plus", "comfort", "elegance", "dynamic",
}

// ExtractModelVariant splits a raw model string into the base model
// used for market searches and an optional trim level. Engine variants
// ("320d xDrive", "2.0 TDI") stay in the base model; only trim levels
// are split off.
func ExtractModelVariant(rawModel string) (base, variant string) {
	compact := strings.ToLower(strings.ReplaceAll(rawModel, " ", ""))
	for key, corrected := range _rsModels {
		if strings.Contains(compact, key) {
			return corrected, ""
		}
	}

	parts := strings.Fields(rawModel)
	if len(parts) <= 1 {
		return rawModel, ""
	}

	trimStart := -1
	for i, part := range parts {
		lower := strings.ToLower(part)

		if containsWord(_trimLevels, lower) {
			trimStart = i
			break
		}

		isEngine := strings.ContainsAny(part, "0123456789")
		if !isEngine {
			for _, ind := range _engineIndicators {
				if strings.Contains(lower, ind) || strings.HasSuffix(lower, ind) {
					isEngine = true
					break
				}
			}
		}

		if !isEngine && i > 2 {
			trimStart = i
			break
		}
	}

	if trimStart < 0 {
		return rawModel, ""
	}

	return strings.Join(parts[:trimStart], " "), strings.Join(parts[trimStart:], " ")
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}
