package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/PulsaGit/promo_api/internal/utils"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

// reportingEndpoints are the SOCX reporting feeds aggregated into one
// dashboard response, keyed by the field name the dashboard expects.
var reportingEndpoints = map[string]string{
	"totalDeposit":             "/api/v1/reporting/total_deposit",
	"totalResellersBalance":    "/api/v1/reporting/total_resellers_balance",
	"totalSuppliersBalance":    "/api/v1/reporting/total_suppliers_balance",
	"transactionPending":       "/api/v1/reporting/transaction_pending",
	"transactionSuccess":       "/api/v1/reporting/transaction_success",
	"transactionFailed":        "/api/v1/reporting/transaction_failed",
	"transactionFollowUp":      "/api/v1/reporting/transaction_follow_up",
	"totalTransactionsSuccess": "/api/v1/reporting/total_transactions_success",
	"allTransactionToday":      "/api/v1/reporting/all_transaction_today",
}

// DashboardStat is one reporting feed's outcome. A failed feed carries its
// error instead of failing the whole dashboard.
type DashboardStat struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// DashboardService aggregates SOCX reporting feeds and the remote
// transaction list for the dashboard screens.
type DashboardService struct {
	settingsSvc *SettingsService
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(settingsSvc *SettingsService) *DashboardService {
	return &DashboardService{settingsSvc: settingsSvc}
}

// Stats fetches every reporting feed concurrently. Individual feed failures
// are reported per key; a remote 401 aborts the whole call.
func (s *DashboardService) Stats(ctx context.Context, userID int) (map[string]DashboardStat, error) {
	client, err := s.settingsSvc.SocxClient(userID)
	if err != nil {
		return nil, err
	}
	return s.statsWithClient(ctx, client)
}

func (s *DashboardService) statsWithClient(ctx context.Context, client *socx.Client) (map[string]DashboardStat, error) {
	stats := make(map[string]DashboardStat, len(reportingEndpoints))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var authFailed atomic.Bool

	for key, endpoint := range reportingEndpoints {
		wg.Add(1)
		go func(key, endpoint string) {
			defer wg.Done()

			stat := DashboardStat{Status: "success"}
			status, raw, err := client.Do(ctx, http.MethodGet, endpoint, nil)
			switch {
			case err != nil:
				stat = DashboardStat{Status: "error", Error: err.Error()}
			case status == http.StatusUnauthorized:
				authFailed.Store(true)
				return
			case status >= 400:
				stat = DashboardStat{Status: "error", Error: fmt.Sprintf("upstream returned %d", status)}
			default:
				stat.Data = raw
			}

			mu.Lock()
			stats[key] = stat
			mu.Unlock()
		}(key, endpoint)
	}
	wg.Wait()

	if authFailed.Load() {
		return nil, utils.ErrSocxTokenInvalid
	}
	return stats, nil
}

// Transactions forwards the remote transaction list, with optional search
// column q and value v. Pagination is the platform's.
func (s *DashboardService) Transactions(ctx context.Context, userID, page int, q, v string) (json.RawMessage, error) {
	client, err := s.settingsSvc.SocxClient(userID)
	if err != nil {
		return nil, err
	}
	return s.transactionsWithClient(ctx, client, page, q, v)
}

func (s *DashboardService) transactionsWithClient(ctx context.Context, client *socx.Client, page int, q, v string) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if q != "" && v != "" {
		params.Set("q", q)
		params.Set("v", v)
	}

	status, raw, err := client.Do(ctx, http.MethodGet, "/api/v1/transactions?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		return nil, utils.ErrSocxTokenInvalid
	}
	if status >= 400 {
		return nil, fmt.Errorf("transaction list returned %d", status)
	}
	return raw, nil
}
