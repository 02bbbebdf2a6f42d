package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PulsaGit/promo_api/internal/utils"
	"github.com/PulsaGit/promo_api/pkg/socx"
)

// fakeSocx is an in-memory stand-in for the platform, stateful so that a
// second sync run observes what the first one wrote.
type fakeSocx struct {
	mu           sync.Mutex
	productID    int
	productCode  string
	productPrice int
	modules      []fakeModule
	resale       map[int]*fakeResale
	assocs       map[int]*fakeAssoc
	nextID       int
	unauthorized bool
}

type fakeModule struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Status int    `json:"status"`
}

type fakeResale struct {
	ID          int    `json:"id"`
	SuppliersID int    `json:"suppliers_id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Price       int    `json:"price"`
}

type fakeAssoc struct {
	ID                  int    `json:"id"`
	ProductsID          int    `json:"products_id"`
	Code                string `json:"code"`
	SuppliersProductsID int    `json:"suppliers_products_id"`
	SuppliersModulesID  int    `json:"suppliers_modules_id"`
	Priority            int    `json:"priority"`
	Status              int    `json:"status"`
	Price               int    `json:"price"`
}

func newFakeSocx() *fakeSocx {
	return &fakeSocx{
		productID:    11,
		productCode:  "PAKET5GB",
		productPrice: 4000,
		modules: []fakeModule{
			{ID: 1, Name: "module-a", Status: 1},
			{ID: 2, Name: "module-b", Status: 1},
			{ID: 9, Name: "module-off", Status: 0},
		},
		resale: map[int]*fakeResale{},
		assocs: map[int]*fakeAssoc{},
		nextID: 100,
	}
}

func (f *fakeSocx) addAssoc(code string, moduleID, priority, price int) {
	f.nextID++
	rp := &fakeResale{ID: f.nextID, SuppliersID: 35, Code: code, Price: price}
	f.resale[rp.ID] = rp
	f.nextID++
	f.assocs[f.nextID] = &fakeAssoc{
		ID:                  f.nextID,
		ProductsID:          f.productID,
		Code:                code,
		SuppliersProductsID: rp.ID,
		SuppliersModulesID:  moduleID,
		Priority:            priority,
		Status:              1,
	}
}

// assocView returns (code, module, priority, price) rows sorted for stable
// assertions. Price is resolved through the resale product, as the platform
// does.
func (f *fakeSocx) assocView() [][4]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][4]interface{}, 0, len(f.assocs))
	for _, a := range f.assocs {
		price := 0
		if rp, ok := f.resale[a.SuppliersProductsID]; ok {
			price = rp.Price
		}
		out = append(out, [4]interface{}{a.Code, a.SuppliersModulesID, a.Priority, price})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0].(string) < out[j][0].(string)
		}
		return out[i][1].(int) < out[j][1].(int)
	})
	return out
}

func (f *fakeSocx) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.unauthorized {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		writeList := func(v interface{}) {
			json.NewEncoder(w).Encode(map[string]interface{}{"data": v})
		}
		path := r.URL.Path

		switch {
		case strings.HasPrefix(path, "/api/v1/products/filter/"):
			writeList([]map[string]interface{}{{
				"id": f.productID, "code": f.productCode, "name": "Paket 5GB", "price": f.productPrice,
			}})

		case path == "/api/v1/products_has_suppliers_modules" && r.Method == http.MethodGet:
			list := make([]fakeAssoc, 0, len(f.assocs))
			for _, a := range f.assocs {
				row := *a
				if rp, ok := f.resale[a.SuppliersProductsID]; ok {
					row.Price = rp.Price
				}
				list = append(list, row)
			}
			writeList(list)

		case path == "/api/v1/products_has_suppliers_modules" && r.Method == http.MethodPost:
			var req fakeAssoc
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.nextID++
			req.ID = f.nextID
			f.assocs[req.ID] = &req
			writeList(map[string]int{"id": req.ID})

		case strings.HasPrefix(path, "/api/v1/products_has_suppliers_modules/"):
			id, _ := strconv.Atoi(strings.TrimPrefix(path, "/api/v1/products_has_suppliers_modules/"))
			switch r.Method {
			case http.MethodDelete:
				delete(f.assocs, id)
			case http.MethodPatch:
				var req struct {
					Priority int `json:"priority"`
				}
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				if a, ok := f.assocs[id]; ok {
					a.Priority = req.Priority
				}
			}
			w.Write([]byte(`{"status":"ok"}`))

		case strings.HasPrefix(path, "/api/v1/suppliers_modules/list/"):
			writeList(f.modules)

		case strings.HasPrefix(path, "/api/v1/suppliers_products/list/"):
			list := make([]fakeResale, 0, len(f.resale))
			for _, rp := range f.resale {
				list = append(list, *rp)
			}
			writeList(list)

		case path == "/api/v1/suppliers_products" && r.Method == http.MethodPost:
			var req fakeResale
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.nextID++
			req.ID = f.nextID
			f.resale[req.ID] = &req
			writeList(req)

		case strings.HasPrefix(path, "/api/v1/suppliers_products/"):
			id, _ := strconv.Atoi(strings.TrimPrefix(path, "/api/v1/suppliers_products/"))
			var req struct {
				Price int `json:"price"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if rp, ok := f.resale[id]; ok {
				rp.Price = req.Price
			}
			w.Write([]byte(`{"status":"ok"}`))

		case strings.HasPrefix(path, "/api/v1/products/") && r.Method == http.MethodPatch:
			var req struct {
				Price int `json:"price"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.productPrice = req.Price
			w.Write([]byte(`{"status":"ok"}`))

		default:
			t.Errorf("unexpected request %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newSyncFixture(t *testing.T) (*CatalogSyncService, *socx.Client, *fakeSocx) {
	t.Helper()
	fake := newFakeSocx()
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)
	client := socx.NewClient(socx.Config{BaseURL: srv.URL, Token: "t"})
	return NewCatalogSyncService(nil, nil), client, fake
}

func twoPromoRequest() SyncRequest {
	return SyncRequest{
		ProductCode: "PAKET5GB",
		ProvidersID: 2,
		CategoryID:  2,
		SellerID:    35,
		Promos: []SyncPromo{
			{Code: "PROMOA", Name: "Promo A", Price: 5000},
			{Code: "PROMOB", Name: "Promo B", Price: 3000},
		},
	}
}

func TestSyncCreatesAssociationsRankedByPrice(t *testing.T) {
	svc, client, fake := newSyncFixture(t)

	result, err := svc.syncWithClient(context.Background(), client, twoPromoRequest())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Summary.Created)
	assert.Equal(t, 0, result.Summary.Matched)
	assert.Equal(t, 0, result.Summary.Deleted)
	assert.Equal(t, 5000, result.Summary.MaxPrice)
	assert.True(t, result.Summary.ProductPriceUpdated)
	assert.Equal(t, 4000, result.ProductBefore.Price)
	assert.Equal(t, 5000, result.ProductAfter.Price)

	// Cheapest promo ranks first; the two modules of one promo share a rank.
	want := [][4]interface{}{
		{"O4UPROMOA", 1, 2, 5000},
		{"O4UPROMOA", 2, 2, 5000},
		{"O4UPROMOB", 1, 1, 3000},
		{"O4UPROMOB", 2, 1, 3000},
	}
	assert.Equal(t, want, fake.assocView())
	assert.Equal(t, 5000, fake.productPrice)
}

func TestSyncIsIdempotent(t *testing.T) {
	svc, client, fake := newSyncFixture(t)
	req := twoPromoRequest()

	_, err := svc.syncWithClient(context.Background(), client, req)
	require.NoError(t, err)
	before := fake.assocView()

	result, err := svc.syncWithClient(context.Background(), client, req)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.Created)
	assert.Equal(t, 0, result.Summary.Updated)
	assert.Equal(t, 0, result.Summary.Deleted)
	assert.Equal(t, 4, result.Summary.Matched)
	assert.Equal(t, 4, result.Summary.Skipped)
	assert.False(t, result.Summary.ProductPriceUpdated)
	assert.Equal(t, before, fake.assocView())
}

func TestSyncUpdatesPriceInPlace(t *testing.T) {
	svc, client, fake := newSyncFixture(t)
	req := twoPromoRequest()

	_, err := svc.syncWithClient(context.Background(), client, req)
	require.NoError(t, err)

	req.Promos[1].Price = 3500 // PROMOB got more expensive
	result, err := svc.syncWithClient(context.Background(), client, req)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.Created)
	assert.Equal(t, 1, result.Summary.Updated, "shared resale product needs a single price patch")
	assert.Equal(t, 4, result.Summary.Matched)

	want := [][4]interface{}{
		{"O4UPROMOA", 1, 2, 5000},
		{"O4UPROMOA", 2, 2, 5000},
		{"O4UPROMOB", 1, 1, 3500},
		{"O4UPROMOB", 2, 1, 3500},
	}
	assert.Equal(t, want, fake.assocView())
}

func TestSyncDeletesStaleAutoCodesOnly(t *testing.T) {
	svc, client, fake := newSyncFixture(t)
	fake.addAssoc("O4USTALE", 1, 1, 2000)
	fake.addAssoc("MANUAL99", 1, 2, 9000)

	result, err := svc.syncWithClient(context.Background(), client, twoPromoRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Summary.Deleted)

	codes := make([]string, 0)
	for _, row := range fake.assocView() {
		codes = append(codes, row[0].(string))
	}
	assert.NotContains(t, codes, "O4USTALE")
	assert.Contains(t, codes, "MANUAL99", "manually curated entries are never touched")
}

func TestSyncModuleSubsetRemovesOutsideSelection(t *testing.T) {
	svc, client, fake := newSyncFixture(t)

	req := twoPromoRequest()
	_, err := svc.syncWithClient(context.Background(), client, req)
	require.NoError(t, err)

	// Narrow the same promos down to module 1 only.
	req.ModuleIDs = []int{1}
	result, err := svc.syncWithClient(context.Background(), client, req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.Deleted, "module 2 copies of wanted codes go away")
	for _, row := range fake.assocView() {
		assert.Equal(t, 1, row[1], "only module 1 associations remain")
	}
}

func TestSyncInactiveModulesIgnored(t *testing.T) {
	svc, client, fake := newSyncFixture(t)

	result, err := svc.syncWithClient(context.Background(), client, twoPromoRequest())
	require.NoError(t, err)

	assert.Equal(t, 4, result.Summary.Created, "2 promos x 2 active modules")
	for _, row := range fake.assocView() {
		assert.NotEqual(t, 9, row[1], "disabled module never receives associations")
	}
}

func TestSyncInputValidation(t *testing.T) {
	svc, client, _ := newSyncFixture(t)

	t.Run("empty promo list", func(t *testing.T) {
		req := twoPromoRequest()
		req.Promos = nil
		_, err := svc.syncWithClient(context.Background(), client, req)
		assert.ErrorIs(t, err, utils.ErrEmptyPromos)
	})

	t.Run("unknown product code", func(t *testing.T) {
		req := twoPromoRequest()
		req.ProductCode = "NOPE"
		_, err := svc.syncWithClient(context.Background(), client, req)
		assert.ErrorIs(t, err, utils.ErrProductNotFound)
	})

	t.Run("module selection matches nothing", func(t *testing.T) {
		req := twoPromoRequest()
		req.ModuleIDs = []int{404}
		_, err := svc.syncWithClient(context.Background(), client, req)
		assert.ErrorIs(t, err, utils.ErrInvalidModuleSelection)
	})
}

func TestSyncUnauthorizedAbortsRun(t *testing.T) {
	svc, client, fake := newSyncFixture(t)
	fake.unauthorized = true

	_, err := svc.syncWithClient(context.Background(), client, twoPromoRequest())
	assert.ErrorIs(t, err, utils.ErrSocxTokenInvalid)
}

func TestAutoCode(t *testing.T) {
	assert.Equal(t, "O4UPROMOA", autoCode("promoa"))
	assert.Equal(t, "O4UPROMOA", autoCode(" PROMOA "))
	assert.Equal(t, "O4UPROMOA", autoCode("o4upromoa"), "existing prefix is not doubled")
	assert.True(t, isAutoCode("o4uX"))
	assert.False(t, isAutoCode("MANUAL"))
}
