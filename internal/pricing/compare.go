package pricing

import (
	"math"

	"dealcheck/internal/listing"
)

// Compare computes price benchmarks and a fairness verdict for a listing
// price against a set of comparable observations.
//
// Observations are split into a retail bucket (new) and a secondhand bucket
// (used and refurbished). The secondhand average is preferred as the
// benchmark since it is the more realistic peer price; retail is the
// fallback. The fair-price band is asymmetric on purpose: up to 10% above
// benchmark still counts as fair, while a great deal requires 30% below.
func Compare(rawPrice string, observations []listing.PriceObservation) listing.PriceComparison {
	listingPrice, ok := ParsePrice(rawPrice)
	if !ok {
		listingPrice = 0
	}

	retail := []listing.PriceObservation{}
	used := []listing.PriceObservation{}
	for _, obs := range observations {
		switch obs.Condition {
		case listing.ConditionNew:
			retail = append(retail, obs)
		case listing.ConditionUsed, listing.ConditionRefurbished:
			used = append(used, obs)
		}
	}

	comparison := listing.PriceComparison{
		ListingPrice: listingPrice,
		Currency:     ExtractCurrency(rawPrice),
		RetailPrices: retail,
		UsedPrices:   used,
		Verdict:      listing.VerdictUnknown,
	}

	avgRetail, haveRetail := mean(retail)
	avgUsed, haveUsed := mean(used)
	if haveRetail {
		rounded := int(math.Round(avgRetail))
		comparison.AverageRetailPrice = &rounded
	}
	if haveUsed {
		rounded := int(math.Round(avgUsed))
		comparison.AverageUsedPrice = &rounded
	}

	// The unrounded mean is the benchmark; the rounded averages are for display.
	benchmark, haveBenchmark := avgUsed, haveUsed
	if !haveBenchmark {
		benchmark, haveBenchmark = avgRetail, haveRetail
	}

	if haveBenchmark && benchmark > 0 && listingPrice > 0 {
		savings := int(math.Round((benchmark - listingPrice) / benchmark * 100))
		comparison.SavingsPercent = &savings
		switch {
		case savings >= 30:
			comparison.Verdict = listing.VerdictGreatDeal
		case savings >= -10:
			comparison.Verdict = listing.VerdictFairPrice
		default:
			comparison.Verdict = listing.VerdictOverpriced
		}
	}

	return comparison
}

func mean(observations []listing.PriceObservation) (float64, bool) {
	if len(observations) == 0 {
		return 0, false
	}
	var sum float64
	for _, obs := range observations {
		sum += obs.Price
	}
	return sum / float64(len(observations)), true
}
