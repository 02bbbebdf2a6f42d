package socx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "test-token"})
}

func TestLookupPromosSendsTaskRequest(t *testing.T) {
	var gotBody taskRequest
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/suppliers_modules/task", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		w.Write([]byte(`{"data":{"list":[
			{"name":"Hot Promo 5GB","dnmcode":"HP5GB","amount":"8800"},
			{"name":"Hot Promo 10GB","dnmcode":"HP10GB","amount":15000}
		]}}`))
	})

	promos, err := client.LookupPromos(context.Background(), TaskIsimpleHotPromo, "6285712345678")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, 40, gotBody.ID)
	assert.Equal(t, "isimple", gotBody.Name)
	assert.Equal(t, "hot_promo", gotBody.Task)
	assert.Equal(t, "6285712345678", gotBody.Payload.Msisdn)

	require.Len(t, promos, 2)
	assert.Equal(t, "HP5GB", promos[0].Code())
	assert.Equal(t, 8800, promos[0].Price())
	assert.Equal(t, 15000, promos[1].Price())
	assert.NotEmpty(t, promos[0].Raw)
}

func TestLookupPromosUnknownShapeYieldsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","message":"no offers"}`))
	})

	promos, err := client.LookupPromos(context.Background(), TaskTriSpecialOffer, "6289512345678")
	require.NoError(t, err)
	assert.Empty(t, promos)
}

func TestUnauthorizedMapsToSentinel(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	})

	_, err := client.LookupPromos(context.Background(), TaskIsimpleHotPromo, "628123")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = client.FindProductByCode(context.Background(), 2, 2, "HP5GB")
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = client.DeleteAssociation(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestServerErrorIncludesSnippet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	})

	_, err := client.LookupPromos(context.Background(), TaskIsimpleHotPromo, "628123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "boom")
}

func TestFindProductByCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/products/filter/2/2", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"id":10,"code":"OTHER","price":1000},
			{"id":11,"code":"hp5gb","price":"8800"}
		]}`))
	})

	t.Run("case insensitive match", func(t *testing.T) {
		p, err := client.FindProductByCode(context.Background(), 2, 2, " HP5GB ")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 11, p.ID.Int())
		assert.Equal(t, 8800, p.Price.Int())
	})

	t.Run("miss returns nil without error", func(t *testing.T) {
		p, err := client.FindProductByCode(context.Background(), 2, 2, "MISSING")
		require.NoError(t, err)
		assert.Nil(t, p)
	})
}

func TestListAssociationsFiltersByProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/products_has_suppliers_modules", r.URL.Path)
		require.Equal(t, "11", r.URL.Query().Get("products_id"))
		w.Write([]byte(`{"list":[
			{"id":1,"products_id":11,"code":"O4UHP5GB","suppliers_modules_id":3,"priority":1,"price":"8800"}
		]}`))
	})

	assocs, err := client.ListAssociations(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, assocs, 1)
	assert.Equal(t, "O4UHP5GB", assocs[0].Code)
	assert.Equal(t, 3, assocs[0].SuppliersModulesID.Int())
	assert.Equal(t, 8800, assocs[0].Price.Int())
}

func TestCreateResaleProductDecodesCreated(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreateResaleProductRequest
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, 1, req.Status, "status should default to active")
		w.Write([]byte(`{"data":{"id":77,"suppliers_id":35,"code":"O4UHP5GB","price":8800}}`))
	})

	created, err := client.CreateResaleProduct(context.Background(), CreateResaleProductRequest{
		SuppliersID: 35,
		Code:        "O4UHP5GB",
		Name:        "Hot Promo 5GB",
		Price:       8800,
	})
	require.NoError(t, err)
	assert.Equal(t, 77, created.ID.Int())
}

func TestCreateResaleProductAckOnlyRefetches(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/suppliers_products":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/v1/suppliers_products/list/35":
			w.Write([]byte(`[{"id":91,"suppliers_id":35,"code":"o4uhp5gb","price":8800}]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	created, err := client.CreateResaleProduct(context.Background(), CreateResaleProductRequest{
		SuppliersID: 35,
		Code:        "O4UHP5GB",
		Price:       8800,
	})
	require.NoError(t, err)
	assert.Equal(t, 91, created.ID.Int())
}

func TestDoForwardsRawResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/v1/users/verify", r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"weird":true}`))
	})

	status, body, err := client.Do(context.Background(), http.MethodGet, "/api/v1/users/verify", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, status)
	assert.JSONEq(t, `{"weird":true}`, string(body))
}
