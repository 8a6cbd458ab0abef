//go:build e2e

package purchase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slotlease/internal/handler/middleware"
	"slotlease/internal/pkg/jwt"
	"slotlease/tests/e2e"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const leasesURL = "/api/leases"

type PurchaseSuite struct {
	e2e.SharedSuite
}

func TestPurchaseSuite(t *testing.T) {
	suite.Run(t, new(PurchaseSuite))
}

func (s *PurchaseSuite) seedAccount(owner uuid.UUID, currency string, balance int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := s.DB.Exec(ctx,
		"INSERT INTO ledger_accounts (owner_id, currency, balance) VALUES ($1, $2, $3)",
		owner, currency, balance)
	require.NoError(s.T(), err)
}

func (s *PurchaseSuite) balance(owner uuid.UUID, currency string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var balance string
	err := s.DB.QueryRow(ctx,
		"SELECT balance::text FROM ledger_accounts WHERE owner_id = $1 AND currency = $2",
		owner, currency).Scan(&balance)
	require.NoError(s.T(), err)
	return balance
}

func (s *PurchaseSuite) token(userID uuid.UUID) string {
	token, err := jwt.SignToken(s.Config.JWT.Secret, userID, middleware.RoleUser, time.Hour)
	require.NoError(s.T(), err)
	return token
}

func (s *PurchaseSuite) post(url, token string, body map[string]any, idempotencyKey string) *httptest.ResponseRecorder {
	data, err := json.Marshal(body)
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func (s *PurchaseSuite) TestPurchase() {
	s.Run("top ad purchase debits the buyer and commits the lease", func() {
		t := s.T()
		buyer := uuid.New()
		s.seedAccount(buyer, "coin", 2000)

		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}
		rec := s.post(leasesURL, s.token(buyer), body, uuid.NewString())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "1000", resp["price"])
		require.Equal(t, "1000.00", s.balance(buyer, "coin"))
	})

	s.Run("second buyer of the same window is rejected by the database", func() {
		t := s.T()
		first := uuid.New()
		second := uuid.New()
		s.seedAccount(first, "coin", 2000)
		s.seedAccount(second, "coin", 2000)

		body := map[string]any{"product": "top_ad", "index": 0, "regions": []string{"ALL"}}
		rec := s.post(leasesURL, s.token(first), body, uuid.NewString())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		rec = s.post(leasesURL, s.token(second), body, uuid.NewString())
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		// The loser's funds came back through the compensating transaction.
		require.Equal(t, "2000.00", s.balance(second, "coin"))
	})

	s.Run("insufficient funds is rejected by the balance constraint", func() {
		t := s.T()
		buyer := uuid.New()
		owner := uuid.New()
		s.seedAccount(buyer, "coin", 40)

		body := map[string]any{
			"product": "favorite_user", "owner_id": owner, "index": 0, "days": 5,
		}
		rec := s.post(leasesURL, s.token(buyer), body, uuid.NewString())
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		require.Equal(t, "40.00", s.balance(buyer, "coin"))
	})

	s.Run("favorite purchase splits revenue with the profile owner", func() {
		t := s.T()
		buyer := uuid.New()
		owner := uuid.New()
		s.seedAccount(buyer, "coin", 100)

		body := map[string]any{
			"product": "favorite_user", "owner_id": owner, "index": 1, "days": 3,
		}
		rec := s.post(leasesURL, s.token(buyer), body, uuid.NewString())
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.Equal(t, "70.00", s.balance(buyer, "coin"))
		require.Equal(t, "15.00", s.balance(owner, "coin"))
	})

	s.Run("replay with the same idempotency key charges once", func() {
		t := s.T()
		buyer := uuid.New()
		s.seedAccount(buyer, "token", 500)
		key := uuid.NewString()

		body := map[string]any{"product": "suggested_follow", "index": 2, "tier_days": 7}
		first := s.post(leasesURL, s.token(buyer), body, key)
		require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

		second := s.post(leasesURL, s.token(buyer), body, key)
		require.Equal(t, http.StatusOK, second.Code, second.Body.String())

		var firstResp, secondResp map[string]any
		require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))
		require.Equal(t, firstResp["id"], secondResp["id"])
		require.Equal(t, "200.00", s.balance(buyer, "token"))
	})
}
