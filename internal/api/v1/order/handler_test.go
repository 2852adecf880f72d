package order_test

import (
	"driveet-backend/internal/api/apitest"
	"driveet-backend/internal/api/v1/order"
	"driveet-backend/internal/models"
	"driveet-backend/internal/payment/mock"
	"driveet-backend/internal/services"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	user   models.User
	lite   models.BundleDefinition
	basic  models.BundleDefinition
	method models.PaymentMethod
	router *gin.Engine
}

func setup(t *testing.T) fixture {
	apitest.SetupDB(t)
	services.SetVerifier(mock.NewMockDriver())

	f := fixture{
		user:   apitest.SeedUser(t, "abebe", models.RoleUser),
		lite:   apitest.SeedDefinition(t, "LITE", 50),
		basic:  apitest.SeedDefinition(t, "BASIC", 150),
		method: apitest.SeedMethod(t, "TELEBIRR"),
	}
	f.router = apitest.NewRouter(&f.user, order.RegisterRoutes)
	return f
}

func (f fixture) createOrder(t *testing.T, defID uint) order.OrderResponse {
	t.Helper()
	w, env := apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders", gin.H{
		"bundle_definition_id": defID,
		"payment_method_id":    f.method.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp order.OrderResponse
	apitest.DecodeData(t, env, &resp)
	return resp
}

func TestOrderFlow_FullPayment(t *testing.T) {
	f := setup(t)

	created := f.createOrder(t, f.basic.ID)
	assert.Equal(t, models.OrderStatusPending, created.Status)
	assert.Equal(t, 150.0, created.OrderAmount)
	assert.Equal(t, "TELEBIRR", created.PaymentMethod.Code)

	w, env := apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/verify", gin.H{"reference_number": "TEST-150-a1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp order.VerifyPaymentResponse
	apitest.DecodeData(t, env, &resp)
	assert.Equal(t, models.OrderStatusCompleted, resp.Order.Status)
	require.NotNil(t, resp.Bundle)
	assert.Equal(t, "BASIC", resp.Bundle.Definition.Code)
	assert.True(t, resp.Bundle.IsActive)
	assert.Equal(t, 10, resp.Bundle.ExamsRemaining)

	// Completed orders can be neither verified again nor cancelled.
	w, env = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/verify", gin.H{"reference_number": "TEST-150-a2"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", env.Code)

	w, _ = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOrderFlow_InsufficientFundsThenAcceptSuggestion(t *testing.T) {
	f := setup(t)
	created := f.createOrder(t, f.basic.ID)

	w, env := apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/verify", gin.H{"reference_number": "TEST-100-b1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp order.VerifyPaymentResponse
	apitest.DecodeData(t, env, &resp)
	assert.Equal(t, models.OrderStatusInsufficientFunds, resp.Order.Status)
	assert.Nil(t, resp.Bundle)
	assert.Equal(t, 50.0, resp.Deficit)
	require.Len(t, resp.Order.Suggestions, 1)
	assert.Equal(t, "LITE", resp.Order.Suggestions[0].Definition.Code)

	w, _ = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/accept-suggestion", gin.H{"bundle_definition_id": f.basic.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/accept-suggestion", gin.H{"bundle_definition_id": f.lite.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var done order.CompletedOrderResponse
	apitest.DecodeData(t, env, &done)
	assert.Equal(t, models.OrderStatusCompleted, done.Order.Status)
	assert.Equal(t, "LITE", done.Bundle.Definition.Code)
	assert.Equal(t, 50.0, done.Order.SurplusAmount)
	assert.Equal(t, f.basic.ID, done.Order.RequestedDefinitionID)
}

func TestOrderFlow_Failures(t *testing.T) {
	f := setup(t)
	created := f.createOrder(t, f.basic.ID)

	w, env := apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/verify", gin.H{"reference_number": "NOPE-1"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "EXTERNAL_VERIFICATION_FAILURE", env.Code)

	w, _ = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/verify", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders", gin.H{"bundle_definition_id": 999, "payment_method_id": f.method.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	other := apitest.SeedUser(t, "kebede", models.RoleUser)
	otherRouter := apitest.NewRouter(&other, order.RegisterRoutes)
	w, _ = apitest.Do(t, otherRouter, http.MethodGet, "/api/v1/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = apitest.Do(t, f.router, http.MethodPost, "/api/v1/orders/"+created.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cancelled order.OrderResponse
	apitest.DecodeData(t, env, &cancelled)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	w, _ = apitest.Do(t, apitest.NewRouter(nil, order.RegisterRoutes), http.MethodGet, "/api/v1/orders/"+created.ID, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
