package marketdata

import (
	"strconv"
	"strings"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/goccy/go-json"
)

// parseSnapshot extracts a MarketSnapshot from one raw Gamma API market
// record. It tries the packed outcomes/outcomePrices format first, then the
// tokenized format, returning false if neither yields both a YES and a NO
// price.
func parseSnapshot(raw map[string]interface{}, fetchedAt time.Time) (types.MarketSnapshot, bool) {
	marketID, ok := firstString(raw, "conditionId", "condition_id", "id")
	if !ok {
		return types.MarketSnapshot{}, false
	}

	question, _ := firstString(raw, "question", "title")

	yesPrice, noPrice, ok := parsePackedOutcomes(raw)
	if !ok {
		yesPrice, noPrice, ok = parseTokenizedOutcomes(raw)
	}
	if !ok {
		return types.MarketSnapshot{}, false
	}

	snapshot := types.MarketSnapshot{
		MarketID:  marketID,
		Question:  question,
		YesPrice:  yesPrice,
		NoPrice:   noPrice,
		Active:    boolOrDefault(raw, "active", true),
		Closed:    boolOrDefault(raw, "closed", false),
		FetchedAt: fetchedAt,
	}

	snapshot.Volume = firstFloatPtr(raw, "volumeNum", "volume")
	snapshot.Liquidity = firstFloatPtr(raw, "liquidityNum", "liquidity")

	return snapshot, true
}

// parsePackedOutcomes handles the "outcomes"/"outcomePrices" representation,
// which may arrive either as JSON arrays or as JSON-encoded strings holding
// arrays, each with exactly two elements.
func parsePackedOutcomes(raw map[string]interface{}) (yes, no float64, ok bool) {
	outcomes, ok1 := asStringSlice(raw["outcomes"])
	prices, ok2 := asStringSlice(raw["outcomePrices"])
	if !ok1 || !ok2 || len(outcomes) != 2 || len(prices) != 2 {
		return 0, 0, false
	}

	return mapOutcomesToPrices(outcomes, prices)
}

// parseTokenizedOutcomes handles the "tokens": [{outcome, price}, ...] form.
func parseTokenizedOutcomes(raw map[string]interface{}) (yes, no float64, ok bool) {
	rawTokens, isSlice := raw["tokens"].([]interface{})
	if !isSlice {
		return 0, 0, false
	}

	var outcomes []string
	var prices []string
	for _, rt := range rawTokens {
		tokenMap, isMap := rt.(map[string]interface{})
		if !isMap {
			continue
		}
		outcome, _ := tokenMap["outcome"].(string)
		price := stringify(tokenMap["price"])
		outcomes = append(outcomes, outcome)
		prices = append(prices, price)
	}

	if len(outcomes) != 2 || len(prices) != 2 {
		return 0, 0, false
	}

	return mapOutcomesToPrices(outcomes, prices)
}

// mapOutcomesToPrices maps outcome labels to YES/NO prices, case-insensitively.
func mapOutcomesToPrices(outcomes, prices []string) (yes, no float64, ok bool) {
	var yesSet, noSet bool

	for i, label := range outcomes {
		price, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			return 0, 0, false
		}

		switch strings.ToLower(label) {
		case "yes", "long":
			yes = price
			yesSet = true
		case "no", "short":
			no = price
			noSet = true
		}
	}

	return yes, no, yesSet && noSet
}

// firstString returns the first present, non-empty string field among keys.
func firstString(raw map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, exists := raw[k]; exists {
			if s, isStr := v.(string); isStr && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// firstFloatPtr returns a pointer to the first numeric field found among
// keys, parsing plain strings as a fallback. Returns nil if none present.
func firstFloatPtr(raw map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		v, exists := raw[k]
		if !exists || v == nil {
			continue
		}
		switch val := v.(type) {
		case float64:
			return &val
		case string:
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

func boolOrDefault(raw map[string]interface{}, key string, def bool) bool {
	v, exists := raw[key]
	if !exists {
		return def
	}
	b, isBool := v.(bool)
	if !isBool {
		return def
	}
	return b
}

// asStringSlice normalizes a field that may be a JSON array, a JSON-encoded
// string holding an array, or an array of already-decoded interface{}
// values, into a slice of strings.
func asStringSlice(v interface{}) ([]string, bool) {
	switch val := v.(type) {
	case string:
		var decoded []interface{}
		if err := json.Unmarshal([]byte(val), &decoded); err != nil {
			return nil, false
		}
		return interfacesToStrings(decoded)
	case []interface{}:
		return interfacesToStrings(val)
	default:
		return nil, false
	}
}

func interfacesToStrings(vals []interface{}) ([]string, bool) {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, stringify(v))
	}
	return out, true
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
