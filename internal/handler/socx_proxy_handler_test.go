package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxyAllowed(t *testing.T) {
	cases := []struct {
		endpoint string
		want     bool
	}{
		{"/api/v1/products/filter/2/2", true},
		{"/api/v1/products_has_suppliers_modules?products_id=11", true},
		{"/api/v1/suppliers_modules/list/35", true},
		{"/api/v1/suppliers_products/list/35", true},
		{"/api/v1/reporting/total_deposit", true},
		{"/api/v1/reporting/transaction_pending", true},
		{"/api/v1/transactions?page=1", true},
		{"/api/v1/users/verify", true},
		{"/api/v1/users", false},
		{"/api/v1/resellers", false},
		{"/api/v1/settings", false},
		{"/admin", false},
	}

	for _, tc := range cases {
		t.Run(tc.endpoint, func(t *testing.T) {
			assert.Equal(t, tc.want, proxyAllowed(tc.endpoint))
		})
	}
}
