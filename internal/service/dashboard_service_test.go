package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PulsaGit/promo_api/internal/utils"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

func newDashboardTestClient(t *testing.T, handler http.HandlerFunc) *socx.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return socx.NewClient(socx.Config{BaseURL: srv.URL, Token: "t"})
}

func TestDashboardStatsAggregatesFeeds(t *testing.T) {
	client := newDashboardTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/total_deposit"):
			w.Write([]byte(`{"data":{"total":125000}}`))
		case strings.HasSuffix(r.URL.Path, "/transaction_failed"):
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.Write([]byte(`{"data":[]}`))
		}
	})

	svc := NewDashboardService(nil)
	stats, err := svc.statsWithClient(context.Background(), client)
	require.NoError(t, err)
	require.Len(t, stats, len(reportingEndpoints))

	deposit := stats["totalDeposit"]
	assert.Equal(t, "success", deposit.Status)
	assert.JSONEq(t, `{"data":{"total":125000}}`, string(deposit.Data))

	failed := stats["transactionFailed"]
	assert.Equal(t, "error", failed.Status)
	assert.Contains(t, failed.Error, "500")
	assert.Nil(t, failed.Data)
}

func TestDashboardStatsUnauthorizedAborts(t *testing.T) {
	client := newDashboardTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	svc := NewDashboardService(nil)
	_, err := svc.statsWithClient(context.Background(), client)
	require.ErrorIs(t, err, utils.ErrSocxTokenInvalid)
}

func TestDashboardTransactionsForwardsQuery(t *testing.T) {
	var gotPath string
	var gotQuery string
	client := newDashboardTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":{"rows":[],"count":0}}`))
	})

	svc := NewDashboardService(nil)
	raw, err := svc.transactionsWithClient(context.Background(), client, 3, "destination", "08123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"rows":[],"count":0}}`, string(raw))
	assert.Equal(t, "/api/v1/transactions", gotPath)
	assert.Contains(t, gotQuery, "page=3")
	assert.Contains(t, gotQuery, "q=destination")
	assert.Contains(t, gotQuery, "v=08123")
}

func TestDashboardTransactionsDefaultsPage(t *testing.T) {
	var gotQuery string
	client := newDashboardTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":{"rows":[],"count":0}}`))
	})

	svc := NewDashboardService(nil)
	_, err := svc.transactionsWithClient(context.Background(), client, 0, "", "only-value")
	require.NoError(t, err)
	assert.Equal(t, "page=1", gotQuery)
}

func TestDashboardTransactionsUnauthorized(t *testing.T) {
	client := newDashboardTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	svc := NewDashboardService(nil)
	_, err := svc.transactionsWithClient(context.Background(), client, 1, "", "")
	require.ErrorIs(t, err, utils.ErrSocxTokenInvalid)
}
