package services

import (
	"driveet-backend/internal/models"
	"sort"
	"strings"

	"gorm.io/gorm"
)

const (
	maxSuggestions = 3

	valueWeight     = 0.4
	matchBonus      = 0.3
	budgetFitBonus  = 0.2
	popularityBonus = 0.1

	budgetFitLow  = 0.8
	budgetFitHigh = 1.0

	reasonCheapest = "cheapest available"
)

// Suggestion is one scored alternative for an underpaid order.
type Suggestion struct {
	Definition models.BundleDefinition `json:"definition"`
	Reason     string                  `json:"reason"`
	Score      float64                 `json:"score"`
	Deficit    float64                 `json:"deficit"`
}

// Suggest ranks what budget can buy. Candidates priced within budget are
// scored and the best three returned; when nothing is affordable the single
// cheapest active definition is returned with its deficit. popularity maps a
// definition ID to its completed purchase count.
func Suggest(budget float64, requestedID uint, candidates []models.BundleDefinition, popularity map[uint]int64, threshold int64) []Suggestion {
	budgetCents := toCents(budget)

	var affordable []models.BundleDefinition
	var cheapest *models.BundleDefinition
	for i := range candidates {
		d := &candidates[i]
		if !d.IsActive {
			continue
		}
		if toCents(d.Price) <= budgetCents {
			affordable = append(affordable, *d)
		}
		if cheapest == nil || toCents(d.Price) < toCents(cheapest.Price) ||
			(toCents(d.Price) == toCents(cheapest.Price) && d.ID < cheapest.ID) {
			cheapest = d
		}
	}

	if len(affordable) == 0 {
		if cheapest == nil {
			return nil
		}
		return []Suggestion{{
			Definition: *cheapest,
			Reason:     reasonCheapest,
			Score:      scoreDefinition(cheapest, budget, requestedID, popularity, threshold),
			Deficit:    fromCents(toCents(cheapest.Price) - budgetCents),
		}}
	}

	// Highest price first so equal scores prefer the better bundle.
	sort.SliceStable(affordable, func(i, j int) bool {
		pi, pj := toCents(affordable[i].Price), toCents(affordable[j].Price)
		if pi != pj {
			return pi > pj
		}
		return affordable[i].ID < affordable[j].ID
	})

	suggestions := make([]Suggestion, 0, len(affordable))
	for i := range affordable {
		d := &affordable[i]
		suggestions = append(suggestions, Suggestion{
			Definition: *d,
			Reason:     suggestionReason(d, budget, requestedID, popularity, threshold),
			Score:      scoreDefinition(d, budget, requestedID, popularity, threshold),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func scoreDefinition(d *models.BundleDefinition, budget float64, requestedID uint, popularity map[uint]int64, threshold int64) float64 {
	score := valueWeight * valueScore(d)
	if d.ID == requestedID {
		score += matchBonus
	}
	if fitsBudget(d, budget) {
		score += budgetFitBonus
	}
	if isPopular(d, popularity, threshold) {
		score += popularityBonus
	}
	return score
}

// valueScore is bounded quota units per unit of price. Free definitions
// score zero.
func valueScore(d *models.BundleDefinition) float64 {
	if d.Price <= 0 {
		return 0
	}
	return float64(d.BoundedQuotaSum()) / d.Price
}

func fitsBudget(d *models.BundleDefinition, budget float64) bool {
	if budget <= 0 {
		return false
	}
	ratio := d.Price / budget
	return ratio >= budgetFitLow && ratio <= budgetFitHigh
}

func isPopular(d *models.BundleDefinition, popularity map[uint]int64, threshold int64) bool {
	return popularity[d.ID] >= threshold
}

func suggestionReason(d *models.BundleDefinition, budget float64, requestedID uint, popularity map[uint]int64, threshold int64) string {
	var parts []string
	if d.ID == requestedID {
		parts = append(parts, "matches your requested bundle")
	}
	if fitsBudget(d, budget) {
		parts = append(parts, "makes the most of your payment")
	}
	if isPopular(d, popularity, threshold) {
		parts = append(parts, "popular choice")
	}
	if len(parts) == 0 {
		return "best value within budget"
	}
	return strings.Join(parts, ", ")
}

// PurchaseCounts returns completed purchase counts per definition.
func PurchaseCounts(db *gorm.DB) (map[uint]int64, error) {
	var rows []struct {
		BundleDefinitionID uint
		Total              int64
	}
	if err := db.Model(&models.BundlePurchase{}).
		Select("bundle_definition_id, COUNT(*) AS total").
		Where("payment_status = ?", models.PurchaseStatusCompleted).
		Group("bundle_definition_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.BundleDefinitionID] = r.Total
	}
	return counts, nil
}

// canUpgrade reports whether some definition costs more than currentPrice
// but no more than currentPrice+extra.
func canUpgrade(currentPrice, extra float64, defs []models.BundleDefinition) bool {
	low := toCents(currentPrice)
	high := low + toCents(extra)
	for i := range defs {
		if !defs[i].IsActive {
			continue
		}
		p := toCents(defs[i].Price)
		if p > low && p <= high {
			return true
		}
	}
	return false
}

// CanUpgradeExisting reports whether the user's active, unexpired bundle could
// be upgraded to a pricier definition with extraBudget.
func CanUpgradeExisting(db *gorm.DB, userID uint, extraBudget float64) (bool, error) {
	if extraBudget <= 0 {
		return false, nil
	}
	bundle, err := resolveActiveBundle(db, userID, now())
	if err != nil {
		switch KindOf(err) {
		case KindNoActiveBundle, KindBundleExpired, KindNotFound:
			return false, nil
		}
		return false, err
	}

	var defs []models.BundleDefinition
	if err := db.Where("is_active = ?", true).Find(&defs).Error; err != nil {
		return false, err
	}
	return canUpgrade(bundle.BundleDefinition.Price, extraBudget, defs), nil
}
