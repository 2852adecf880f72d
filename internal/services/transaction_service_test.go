package services

import (
	"driveet-backend/internal/database"
	"driveet-backend/internal/models"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindTransactions(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "abebe")
	other := seedUser(t, "kebede")
	def := seedDefinition(t, "BASIC", 150, standardQuotas())
	purchase(t, user.ID, def)
	purchase(t, other.ID, def)

	for i := 0; i < 3; i++ {
		_, err := ConsumeResource(user.ID, models.ResourceExam, 1, "", testActor)
		require.NoError(t, err)
	}
	_, err := ConsumeResource(user.ID, models.ResourceChat, 1, "", testActor)
	require.NoError(t, err)

	rows, total, err := FindTransactions(TransactionFilter{UserID: &user.ID, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, rows, 5)

	consume := models.TransactionTypeConsume
	exam := models.ResourceExam
	rows, total, err = FindTransactions(TransactionFilter{Type: &consume, Resource: &exam, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 2)
	assert.Greater(t, rows[0].ID, rows[1].ID)
}

func TestGenerateTransactionCSV(t *testing.T) {
	rows := []models.ResourceTransaction{{
		ID:           7,
		UserID:       1,
		UserBundleID: 2,
		Type:         models.TransactionTypeConsume,
		Resource:     models.ResourceChat,
		Quantity:     1,
		Before:       models.BalanceSnapshot{Chats: 5, DailyChats: 1},
		After:        models.BalanceSnapshot{Chats: 4, TotalChats: 1, DailyChats: 2},
		Description:  "chat, with comma",
		Operator:     "abebe",
		Hash:         "abc",
	}}

	out, err := GenerateTransactionCSV(rows)
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(out))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ID", records[0][0])
	assert.Equal(t, "7", records[1][0])
	assert.Equal(t, "consume", records[1][4])
	assert.Equal(t, "chat", records[1][5])
	assert.Equal(t, "5", records[1][9])
	assert.Equal(t, "4", records[1][10])
	assert.Equal(t, "chat, with comma", records[1][16])
}

func TestVerifyBundleLedger_DetectsTampering(t *testing.T) {
	setupTestDB(t)
	user := seedUser(t, "abebe")
	bundle := purchase(t, user.ID, seedDefinition(t, "BASIC", 150, standardQuotas()))

	_, err := ConsumeResource(user.ID, models.ResourceExam, 2, "", testActor)
	require.NoError(t, err)

	report, err := VerifyBundleLedger(bundle.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.Transactions)

	// A counter write that bypassed the ledger.
	require.NoError(t, database.DB.Model(&models.UserBundle{}).Where("id = ?", bundle.ID).
		Update("exams_remaining", 10).Error)
	report, err = VerifyBundleLedger(bundle.ID)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0].Problem, "live counters")

	// An edited ledger row.
	require.NoError(t, database.DB.Model(&models.UserBundle{}).Where("id = ?", bundle.ID).
		Update("exams_remaining", 8).Error)
	require.NoError(t, database.DB.Model(&models.ResourceTransaction{}).
		Where("user_bundle_id = ? AND type = ?", bundle.ID, models.TransactionTypeConsume).
		Update("quantity", 1).Error)
	report, err = VerifyBundleLedger(bundle.ID)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Equal(t, "hash mismatch", report.Issues[0].Problem)

	_, err = VerifyBundleLedger(999)
	assert.True(t, errors.Is(err, ErrNotFound))
}
