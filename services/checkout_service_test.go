package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickethub/config"
	"tickethub/models"
)

func testSession() *CheckoutSession {
	return &CheckoutSession{
		EventID:  "evt1",
		TicketID: "tkt1",
		Buyer: models.Buyer{
			Name:  "Ada",
			Email: "ada@example.com",
		},
		Quantity:    2,
		UnitPrice:   decimal.RequireFromString("515.00"),
		TotalAmount: decimal.RequireFromString("1030.00"),
		Revenue:     decimal.RequireFromString("60.00"),
		Reference:   "TIX-DEADBEEF00112233",
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCheckoutSessionStoreAndLoad(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &CheckoutService{
		redis: db,
		cfg:   &config.Config{CheckoutSessionTTL: 30 * time.Minute},
	}

	session := testSession()
	payload, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectSet("checkout:"+session.Reference, payload, 30*time.Minute).SetVal("OK")
	require.NoError(t, svc.storeSession(context.Background(), session))

	mock.ExpectGet("checkout:" + session.Reference).SetVal(string(payload))
	loaded, err := svc.loadSession(context.Background(), session.Reference)
	require.NoError(t, err)

	assert.Equal(t, session.EventID, loaded.EventID)
	assert.Equal(t, session.Quantity, loaded.Quantity)
	assert.True(t, session.TotalAmount.Equal(loaded.TotalAmount))
	assert.True(t, session.Revenue.Equal(loaded.Revenue))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutSessionLoad_Expired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &CheckoutService{
		redis: db,
		cfg:   &config.Config{CheckoutSessionTTL: 30 * time.Minute},
	}

	mock.ExpectGet("checkout:TIX-GONE").RedisNil()

	_, err := svc.loadSession(context.Background(), "TIX-GONE")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
