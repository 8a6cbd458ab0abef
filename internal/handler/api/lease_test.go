//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slotlease/internal/domain/ledger"
	"slotlease/internal/domain/pricing"
	"slotlease/internal/handler/api"
	"slotlease/internal/handler/middleware"
	"slotlease/internal/infra/memstore"
	"slotlease/internal/pkg/clock"
	"slotlease/internal/pkg/jwt"
	"slotlease/internal/usecase/commands"
	"slotlease/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type apiFixture struct {
	engine  *gin.Engine
	ledgers *memstore.LedgerStore
	clock   *clock.MockClock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	leases := memstore.NewLeaseStore()
	ledgers := memstore.NewLedgerStore()
	rates := memstore.NewRateStore()
	notifications := memstore.NewNotificationStore()
	idempotency := memstore.NewIdempotencyStore()
	clk := clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	purchases := commands.NewPurchaseCommands(
		leases, ledgers, rates, notifications, idempotency,
		pricing.NewEngine(decimal.NewFromInt(500)),
		commands.DefaultRates{
			FavoriteDaily:  decimal.NewFromInt(10),
			SuggestedDaily: decimal.NewFromInt(50),
		},
		clk,
		24*time.Hour,
	)
	rateCommands := commands.NewRateCommands(leases, rates, clk)
	leaseQueries := queries.NewLeaseQueries(leases, clk)
	balanceQueries := queries.NewBalanceQueries(ledgers)

	leaseHandler := api.NewLeaseHandler(purchases, leaseQueries)
	slotHandler := api.NewSlotHandler(rateCommands, leaseQueries)
	balanceHandler := api.NewBalanceHandler(balanceQueries)
	auth := middleware.NewAuthMiddleware(jwt.NewVerifier(testSecret))

	engine := gin.New()
	authed := engine.Group("/api", auth.RequireAuth())
	authed.POST("/leases", leaseHandler.Purchase)
	authed.POST("/leases/:id/renew", leaseHandler.Renew)
	authed.GET("/leases/:id", leaseHandler.Get)
	authed.PUT("/slots/:product/:index/rate", slotHandler.SetRate)
	authed.GET("/slots/:product/history", slotHandler.History)
	authed.GET("/balances", balanceHandler.Own)
	engine.GET("/api/slots/:product/availability", slotHandler.Availability)
	engine.GET("/api/slots/:product/active", slotHandler.Active)

	return &apiFixture{engine: engine, ledgers: ledgers, clock: clk}
}

func (f *apiFixture) fund(t *testing.T, owner uuid.UUID, currency ledger.Currency, amount int64) {
	t.Helper()
	key := ledger.AccountKey{OwnerID: owner, Currency: currency}
	require.NoError(t, f.ledgers.EnsureAccount(context.Background(), key, decimal.NewFromInt(amount)))
}

func (f *apiFixture) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := jwt.SignToken(testSecret, userID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any, extraHeaders map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func idempotencyHeader() map[string]string {
	return map[string]string{"Idempotency-Key": uuid.NewString()}
}

func TestPurchaseEndpoint(t *testing.T) {
	t.Run("successful purchase returns 201 with the committed lease", func(t *testing.T) {
		f := newAPIFixture(t)
		buyer := uuid.New()
		f.fund(t, buyer, ledger.CurrencyCoin, 2000)

		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}
		rec := f.do(t, http.MethodPost, "/api/leases", f.token(t, buyer, middleware.RoleUser), body, idempotencyHeader())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "top_ad", resp["product"])
		assert.Equal(t, "1000", resp["price"])
		assert.Equal(t, true, resp["active"])
		assert.Equal(t, buyer.String(), resp["lessee_id"])
	})

	t.Run("replay returns 200 with the same lease", func(t *testing.T) {
		f := newAPIFixture(t)
		buyer := uuid.New()
		f.fund(t, buyer, ledger.CurrencyCoin, 2000)
		headers := idempotencyHeader()
		token := f.token(t, buyer, middleware.RoleUser)
		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}

		first := f.do(t, http.MethodPost, "/api/leases", token, body, headers)
		require.Equal(t, http.StatusCreated, first.Code)
		second := f.do(t, http.MethodPost, "/api/leases", token, body, headers)
		require.Equal(t, http.StatusOK, second.Code)

		var firstResp, secondResp map[string]any
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
		assert.Equal(t, firstResp["id"], secondResp["id"])
		assert.Equal(t, true, secondResp["is_replayed"])
	})

	t.Run("missing idempotency key is a 400", func(t *testing.T) {
		f := newAPIFixture(t)
		buyer := uuid.New()
		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}
		rec := f.do(t, http.MethodPost, "/api/leases", f.token(t, buyer, middleware.RoleUser), body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("insufficient funds is a 422", func(t *testing.T) {
		f := newAPIFixture(t)
		buyer := uuid.New()
		f.fund(t, buyer, ledger.CurrencyCoin, 40)

		ownerID := uuid.New()
		body := map[string]any{"product": "favorite_user", "owner_id": ownerID, "index": 0, "days": 5}
		rec := f.do(t, http.MethodPost, "/api/leases", f.token(t, buyer, middleware.RoleUser), body, idempotencyHeader())
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("taken slot is a 409", func(t *testing.T) {
		f := newAPIFixture(t)
		first := uuid.New()
		second := uuid.New()
		f.fund(t, first, ledger.CurrencyCoin, 2000)
		f.fund(t, second, ledger.CurrencyCoin, 2000)
		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}

		rec := f.do(t, http.MethodPost, "/api/leases", f.token(t, first, middleware.RoleUser), body, idempotencyHeader())
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = f.do(t, http.MethodPost, "/api/leases", f.token(t, second, middleware.RoleUser), body, idempotencyHeader())
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unauthenticated request is a 401", func(t *testing.T) {
		f := newAPIFixture(t)
		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}
		rec := f.do(t, http.MethodPost, "/api/leases", "", body, idempotencyHeader())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRenewEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	buyer := uuid.New()
	f.fund(t, buyer, ledger.CurrencyToken, 1000)
	token := f.token(t, buyer, middleware.RoleUser)

	body := map[string]any{"product": "suggested_follow", "index": 0, "tier_days": 7}
	rec := f.do(t, http.MethodPost, "/api/leases", token, body, idempotencyHeader())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	leaseID := created["id"].(string)

	renewBody := map[string]any{"tier_days": 7}
	rec = f.do(t, http.MethodPost, "/api/leases/"+leaseID+"/renew", token, renewBody, idempotencyHeader())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var renewed map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &renewed))
	assert.Equal(t, created["end"], renewed["start"], "renewal starts where the previous lease ends")

	rec = f.do(t, http.MethodPost, "/api/leases/"+uuid.NewString()+"/renew", token, renewBody, idempotencyHeader())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	buyer := uuid.New()
	f.fund(t, buyer, ledger.CurrencyCoin, 2000)

	now := f.clock.Now()
	windowQuery := "?index=0&start=" + now.Format(time.RFC3339) + "&end=" + now.Add(24*time.Hour).Format(time.RFC3339)

	rec := f.do(t, http.MethodGet, "/api/slots/top_ad/availability"+windowQuery, "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"available": true}`, rec.Body.String())

	body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}
	purchase := f.do(t, http.MethodPost, "/api/leases", f.token(t, buyer, middleware.RoleUser), body, idempotencyHeader())
	require.Equal(t, http.StatusCreated, purchase.Code)

	rec = f.do(t, http.MethodGet, "/api/slots/top_ad/availability"+windowQuery, "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"available": false}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/api/slots/banner/availability"+windowQuery, "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetRateEndpoint(t *testing.T) {
	t.Run("owner configures a favorite slot", func(t *testing.T) {
		f := newAPIFixture(t)
		owner := uuid.New()

		body := map[string]any{"daily_rate": "25"}
		rec := f.do(t, http.MethodPut, "/api/slots/favorite_user/0/rate", f.token(t, owner, middleware.RoleUser), body, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	t.Run("global suggested-follow rate needs admin", func(t *testing.T) {
		f := newAPIFixture(t)
		body := map[string]any{"daily_rate": "60"}

		rec := f.do(t, http.MethodPut, "/api/slots/suggested_follow/0/rate", f.token(t, uuid.New(), middleware.RoleUser), body, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = f.do(t, http.MethodPut, "/api/slots/suggested_follow/0/rate", f.token(t, uuid.New(), middleware.RoleAdmin), body, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	t.Run("top ad rate is not configurable", func(t *testing.T) {
		f := newAPIFixture(t)
		body := map[string]any{"daily_rate": "25"}
		rec := f.do(t, http.MethodPut, "/api/slots/top_ad/0/rate", f.token(t, uuid.New(), middleware.RoleAdmin), body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBalancesEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	user := uuid.New()
	f.fund(t, user, ledger.CurrencyCoin, 750)

	rec := f.do(t, http.MethodGet, "/api/balances", f.token(t, user, middleware.RoleUser), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var views []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, "coin", views[0]["currency"])
	assert.Equal(t, "750", views[0]["balance"])
	assert.Equal(t, "token", views[1]["currency"])
	assert.Equal(t, "0", views[1]["balance"])
}
