package tools

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

// FormatRatio renders numerator/denominator with the given number of decimals, "n/a" when the
// denominator is zero
func FormatRatio(numerator, denominator int64, places int32) string {
	if denominator == 0 {
		return "n/a"
	}
	return decimal.NewFromInt(numerator).DivRound(decimal.NewFromInt(denominator), places).StringFixed(places)
}

// FormatPercent renders part/total as a percentage with the given number of decimals
func FormatPercent(part, total int64, places int32) string {
	if total == 0 {
		return "n/a"
	}
	return decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).DivRound(decimal.NewFromInt(total), places).StringFixed(places) + "%"
}
