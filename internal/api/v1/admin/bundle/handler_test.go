package bundle_test

import (
	"driveet-backend/internal/api/apitest"
	"driveet-backend/internal/api/v1/admin/bundle"
	"driveet-backend/internal/models"
	"driveet-backend/internal/services"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseAndVerifyLedger(t *testing.T) {
	apitest.SetupDB(t)
	admin := apitest.SeedUser(t, "admin", models.RoleAdmin)
	user := apitest.SeedUser(t, "abebe", models.RoleUser)
	def := apitest.SeedDefinition(t, "BASIC", 150)
	r := apitest.NewRouter(&admin, bundle.RegisterRoutes)

	w, env := apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/purchase", gin.H{
		"user_id":              user.ID,
		"bundle_definition_id": def.ID,
		"amount_paid":          150,
		"reference_number":     "FT-0001",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp bundle.PurchaseResponse
	apitest.DecodeData(t, env, &resp)
	assert.Equal(t, 10, resp.Bundle.ExamsRemaining)
	assert.Equal(t, 50, resp.Bundle.ChatsRemaining)
	assert.Equal(t, 150.0, resp.AmountPaid)
	assert.NotZero(t, resp.PurchaseID)
	require.NotNil(t, resp.VerifiedAt)

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/purchase", gin.H{
		"user_id":              user.ID,
		"bundle_definition_id": def.ID,
		"reference_number":     "FT-0001",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "a reference can only be used once")

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/purchase", gin.H{
		"user_id":              user.ID,
		"bundle_definition_id": def.ID,
		"amount_paid":          100,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "underpayment")

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/purchase", gin.H{
		"user_id":              9999,
		"bundle_definition_id": def.ID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = apitest.Do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/bundles/%d/ledger/verify", resp.Bundle.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report services.LedgerReport
	apitest.DecodeData(t, env, &report)
	assert.True(t, report.Valid)
	assert.Equal(t, 1, report.Transactions)

	w, _ = apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/999/ledger/verify", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = apitest.Do(t, r, http.MethodGet, "/api/v1/bundles/abc/ledger/verify", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefund(t *testing.T) {
	apitest.SetupDB(t)
	admin := apitest.SeedUser(t, "admin", models.RoleAdmin)
	user := apitest.SeedUser(t, "abebe", models.RoleUser)
	def := apitest.SeedDefinition(t, "BASIC", 150)
	r := apitest.NewRouter(&admin, bundle.RegisterRoutes)

	refund := gin.H{"user_id": user.ID, "resource": "exam", "quantity": 1, "note": "exam service timeout"}

	w, env := apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/refund", refund)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, string(services.KindNoActiveBundle), env.Code)

	b, _, err := services.PurchaseBundle(user.ID, def.ID, services.PaymentData{}, services.Actor{Operator: "admin"})
	require.NoError(t, err)
	_, err = services.ConsumeResource(user.ID, models.ResourceExam, 2, "", services.Actor{Operator: "abebe"})
	require.NoError(t, err)

	w, env = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/refund", refund)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp bundle.RefundResponse
	apitest.DecodeData(t, env, &resp)
	assert.Equal(t, b.ID, resp.BundleID)
	assert.Equal(t, models.Bounded(9), resp.Resources.Exams.Remaining)

	// Refunds never lift a counter above its quota.
	refund["quantity"] = 5
	w, env = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/refund", refund)
	require.Equal(t, http.StatusOK, w.Code)
	resp = bundle.RefundResponse{}
	apitest.DecodeData(t, env, &resp)
	assert.Equal(t, models.Bounded(10), resp.Resources.Exams.Remaining)

	w, _ = apitest.Do(t, r, http.MethodPost, "/api/v1/bundles/refund", gin.H{"user_id": user.ID, "resource": "road_sign", "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	report, err := services.VerifyBundleLedger(b.ID)
	require.NoError(t, err)
	assert.True(t, report.Valid, "%+v", report.Issues)
	assert.Equal(t, 4, report.Transactions)
}
