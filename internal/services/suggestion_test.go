package services

import (
	"driveet-backend/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogDef(id uint, price float64, exam, chat, search models.Quota) models.BundleDefinition {
	return models.BundleDefinition{
		ID:             id,
		Code:           "D" + string(rune('A'+id)),
		ExamQuota:      exam,
		TotalChatQuota: chat,
		SearchQuota:    search,
		Price:          price,
		IsActive:       true,
	}
}

func TestSuggest_OnlyAffordableTopThree(t *testing.T) {
	b := models.Bounded
	defs := []models.BundleDefinition{
		catalogDef(1, 50, b(5), b(20), b(0)),
		catalogDef(2, 80, b(10), b(30), b(0)),
		catalogDef(3, 95, b(10), b(40), b(5)),
		catalogDef(4, 100, b(10), b(50), b(10)),
		catalogDef(5, 300, b(100), b(500), b(100)),
	}

	got := Suggest(100, 5, defs, nil, 50)
	require.Len(t, got, 3)
	for _, s := range got {
		assert.LessOrEqual(t, s.Definition.Price, 100.0)
		assert.Zero(t, s.Deficit)
	}
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Score, got[i].Score)
	}
}

func TestSuggest_ScoreComponents(t *testing.T) {
	b := models.Bounded
	requested := catalogDef(1, 100, b(10), b(50), b(40))
	popular := catalogDef(2, 50, b(10), b(10), b(0))
	defs := []models.BundleDefinition{requested, popular}

	got := Suggest(100, requested.ID, defs, map[uint]int64{popular.ID: 75}, 50)
	require.Len(t, got, 2)

	// requested: 0.4*(100/100) + 0.3 match + 0.2 budget fit
	assert.Equal(t, requested.ID, got[0].Definition.ID)
	assert.InDelta(t, 0.9, got[0].Score, 1e-9)
	assert.Contains(t, got[0].Reason, "matches your requested bundle")

	// popular: 0.4*(20/50) + 0.1 popularity; ratio 0.5 earns no budget bonus
	assert.Equal(t, popular.ID, got[1].Definition.ID)
	assert.InDelta(t, 0.26, got[1].Score, 1e-9)
	assert.Equal(t, "popular choice", got[1].Reason)
}

func TestSuggest_UnlimitedContributesNothingToValue(t *testing.T) {
	u := models.Unlimited()
	d := catalogDef(1, 100, u, u, u)
	assert.Zero(t, valueScore(&d))

	free := catalogDef(2, 0, models.Bounded(5), u, u)
	assert.Zero(t, valueScore(&free))
}

func TestSuggest_BudgetFitBounds(t *testing.T) {
	b := models.Bounded
	low := catalogDef(1, 79.99, b(0), b(0), b(0))
	edge := catalogDef(2, 80, b(0), b(0), b(0))
	exact := catalogDef(3, 100, b(0), b(0), b(0))

	assert.False(t, fitsBudget(&low, 100))
	assert.True(t, fitsBudget(&edge, 100))
	assert.True(t, fitsBudget(&exact, 100))
	assert.False(t, fitsBudget(&exact, 0))
}

func TestSuggest_EqualScoresPreferHigherPrice(t *testing.T) {
	b := models.Bounded
	cheap := catalogDef(1, 40, b(4), b(0), b(0))
	dear := catalogDef(2, 60, b(6), b(0), b(0))

	got := Suggest(200, 0, []models.BundleDefinition{cheap, dear}, nil, 50)
	require.Len(t, got, 2)
	assert.Equal(t, dear.ID, got[0].Definition.ID)
	assert.Equal(t, "best value within budget", got[0].Reason)
}

func TestSuggest_FallsBackToCheapest(t *testing.T) {
	b := models.Bounded
	defs := []models.BundleDefinition{
		catalogDef(1, 150, b(10), b(10), b(10)),
		catalogDef(2, 120, b(10), b(10), b(10)),
		catalogDef(3, 500, b(10), b(10), b(10)),
	}

	got := Suggest(100, 1, defs, nil, 50)
	require.Len(t, got, 1)
	assert.Equal(t, uint(2), got[0].Definition.ID)
	assert.Equal(t, reasonCheapest, got[0].Reason)
	assert.Equal(t, 20.0, got[0].Deficit)
}

func TestSuggest_IgnoresInactiveAndEmptyCatalog(t *testing.T) {
	inactive := catalogDef(1, 10, models.Bounded(1), models.Bounded(1), models.Bounded(1))
	inactive.IsActive = false

	assert.Empty(t, Suggest(100, 0, []models.BundleDefinition{inactive}, nil, 50))
	assert.Empty(t, Suggest(100, 0, nil, nil, 50))
}

func TestCanUpgrade(t *testing.T) {
	b := models.Bounded
	defs := []models.BundleDefinition{
		catalogDef(1, 100, b(1), b(1), b(1)),
		catalogDef(2, 150, b(1), b(1), b(1)),
		catalogDef(3, 300, b(1), b(1), b(1)),
	}

	assert.True(t, canUpgrade(100, 50, defs))
	assert.False(t, canUpgrade(100, 49.99, defs))
	assert.False(t, canUpgrade(300, 1000, defs))
	assert.True(t, canUpgrade(150, 150, defs))
}
