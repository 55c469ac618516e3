package kite

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradejournal/backend/src/models"
)

var testCreds = models.Credentials{APIKey: "key1", AccessToken: "tok1"}

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, testCreds, 5*time.Second)
	require.NoError(t, err)
	return c
}

func TestOrdersSendsAuthAndDecodesEnvelope(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		assert.Equal(t, "token key1:tok1", r.Header.Get("Authorization"))
		assert.Equal(t, "3", r.Header.Get("X-Kite-Version"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":[
			{"order_id":"1001","status":"COMPLETE","tradingsymbol":"INFY","exchange":"NSE","product":"CNC",
			 "transaction_type":"BUY","quantity":10,"filled_quantity":10,"average_price":1500.5,"order_timestamp":"2024-03-15 09:15:02"},
			{"order_id":"1002","status":"OPEN","tradingsymbol":"TCS","exchange":"NSE","product":"CNC",
			 "transaction_type":"BUY","quantity":5,"filled_quantity":0,"average_price":0}
		]}`))
	})

	orders, err := c.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.True(t, orders[0].Completed())
	assert.True(t, decimal.RequireFromString("1500.5").Equal(orders[0].AveragePrice))
	assert.False(t, orders[1].Completed())
}

func TestPositions(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/portfolio/positions", r.URL.Path)
		w.Write([]byte(`{"status":"success","data":{"net":[
			{"tradingsymbol":"INFY","exchange":"NSE","product":"MIS","quantity":0,"realised":250,"pnl":260},
			{"tradingsymbol":"SBIN","exchange":"NSE","product":"MIS","quantity":0,"pnl":-40}
		],"day":[]}}`))
	})

	pos, err := c.Positions(context.Background())
	require.NoError(t, err)
	require.Len(t, pos.Net, 2)

	pnl, ok := pos.Net[0].RealisedPnL()
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(250).Equal(pnl))

	pnl, ok = pos.Net[1].RealisedPnL()
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(-40).Equal(pnl))
}

func TestAuthFailuresUnwrapToTokenRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"status":"error","message":"Invalid session","error_type":"TokenException"}`},
		{"forbidden", http.StatusForbidden, `{"status":"error","message":"Forbidden"}`},
		{"token exception", http.StatusBadRequest, `{"status":"error","message":"Incorrect api_key or access_token.","error_type":"TokenException"}`},
		{"token exception in message", http.StatusBadRequest, `{"status":"error","message":"TokenException: Incorrect api_key or access_token."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.Orders(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTokenRejected)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
		})
	}
}

func TestGenericFailures(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	})
	_, err := c.Orders(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenRejected)
	assert.Contains(t, err.Error(), "upstream exploded")

	c = newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"Route not found","error_type":"GeneralException"}`))
	})
	_, err = c.Orders(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTokenRejected)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", models.Credentials{APIKey: "k"}, time.Second)
	assert.Error(t, err)
}
