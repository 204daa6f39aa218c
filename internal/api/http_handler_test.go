package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"stone-catalog-service/internal/catalog"
	"stone-catalog-service/internal/currency"
	"stone-catalog-service/internal/domain"
)

// MockRateProvider is a mock implementation of RateProvider
type MockRateProvider struct {
	mock.Mock
}

func (m *MockRateProvider) Rates(ctx context.Context) *domain.ExchangeRates {
	args := m.Called(ctx)
	return args.Get(0).(*domain.ExchangeRates)
}

// MockCurrencyResolver is a mock implementation of CurrencyResolver
type MockCurrencyResolver struct {
	mock.Mock
}

func (m *MockCurrencyResolver) Resolve(ctx context.Context, visitorID, clientIP string) currency.State {
	args := m.Called(ctx, visitorID, clientIP)
	return args.Get(0).(currency.State)
}

func (m *MockCurrencyResolver) Select(ctx context.Context, visitorID, code string) (currency.State, error) {
	args := m.Called(ctx, visitorID, code)
	return args.Get(0).(currency.State), args.Error(1)
}

func (m *MockCurrencyResolver) ResetAutoDetect(ctx context.Context, visitorID, clientIP string) (currency.State, error) {
	args := m.Called(ctx, visitorID, clientIP)
	return args.Get(0).(currency.State), args.Error(1)
}

type specRows map[string]domain.FurnitureSpec

func (s specRows) Lookup(name string) (domain.FurnitureSpec, bool) {
	spec, ok := s[catalog.Normalize(name)]
	return spec, ok
}

func PtrTo[T any](v T) *T {
	return &v
}

const testVisitor = "5f0c2a4e-8a0e-4b7c-9d1e-2f3a4b5c6d7e"

func newTestCatalog() *catalog.Catalog {
	paths := []string{
		"furnitures/Tables/Coffee Table/Oslo/1.jpg",
		"furnitures/Tables/Coffee Table/Oslo/2.jpg",
		"furnitures/Benches/Zen/1.jpg",
		"Collection/Marble/Carrara White/stand/s1.webp",
		"Collection/Marble/Carrara White/c2.webp",
	}
	specs := specRows{"oslo": {Name: "Oslo", ProductType: "Table", PriceINR: PtrTo(int64(45000))}}
	return catalog.New(paths, catalog.ResolverFunc(func(p string) string { return "https://cdn.test/" + p }), specs)
}

func testRates() *domain.ExchangeRates {
	r := currency.DefaultRates(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	r.Source = domain.RateSourceCache
	return r
}

// Helper for setting up tests with a chi router and handler
func setupTestChiServer(t *testing.T, rates RateProvider, cur CurrencyResolver) *httptest.Server {
	t.Helper()
	loader := catalog.NewImageLoader(catalog.ResolverFunc(func(p string) string { return "https://img.test/" + p }), 0)
	handler := NewHTTPHandler(newTestCatalog(), rates, cur, loader)
	router := chi.NewRouter()
	handler.RegisterRoutes(router, false)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url string, body []byte) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: testVisitor})
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHTTPHandler_ListCategories(t *testing.T) {
	srv := setupTestChiServer(t, new(MockRateProvider), new(MockCurrencyResolver))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []domain.Category `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "furniture", body.Data[0].ID)
	assert.Equal(t, "slabs", body.Data[1].ID)
}

func TestHTTPHandler_GetCategoryByID(t *testing.T) {
	srv := setupTestChiServer(t, new(MockRateProvider), new(MockCurrencyResolver))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/categories/slabs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cat domain.Category
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cat))
	assert.Equal(t, "Marble", cat.Subcategories[0].Name)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/categories/lighting", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHTTPHandler_IssuesVisitorCookie(t *testing.T) {
	srv := setupTestChiServer(t, new(MockRateProvider), new(MockCurrencyResolver))

	resp, err := http.Get(srv.URL + "/api/v1/categories")
	require.NoError(t, err)
	defer resp.Body.Close()

	var visitor *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == VisitorCookie {
			visitor = c
		}
	}
	require.NotNil(t, visitor, "expected a visitor cookie")
	assert.Len(t, visitor.Value, 36)
	assert.True(t, visitor.HttpOnly)

	// a known visitor isn't issued a new cookie
	known := doRequest(t, http.MethodGet, srv.URL+"/api/v1/categories", nil)
	assert.Empty(t, known.Cookies())
}

func TestHTTPHandler_GetProductByID(t *testing.T) {
	rates := new(MockRateProvider)
	cur := new(MockCurrencyResolver)
	rates.On("Rates", mock.Anything).Return(testRates())
	cur.On("Resolve", mock.Anything, testVisitor, "127.0.0.1").Return(currency.State{Phase: currency.Auto, Code: "USD"})
	srv := setupTestChiServer(t, rates, cur)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/products/furniture-tables-coffee-table-oslo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view struct {
		ID          string         `json:"id"`
		Subcategory string         `json:"subcategory"`
		PriceINR    *int64         `json:"priceINR"`
		Available   bool           `json:"available"`
		Quote       currency.Quote `json:"quote"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "coffee-table", view.Subcategory)
	assert.Equal(t, PtrTo(int64(45000)), view.PriceINR)
	assert.True(t, view.Available)
	assert.Equal(t, "USD", view.Quote.Currency)
	assert.Equal(t, "$540.00", view.Quote.Formatted)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/products/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cur.AssertExpectations(t)
}

func TestHTTPHandler_ListProducts(t *testing.T) {
	rates := new(MockRateProvider)
	cur := new(MockCurrencyResolver)
	rates.On("Rates", mock.Anything).Return(testRates())
	cur.On("Resolve", mock.Anything, testVisitor, mock.Anything).Return(currency.State{Phase: currency.Manual, Code: "EUR"})
	srv := setupTestChiServer(t, rates, cur)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/products?category=furniture&limit=1&page=2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data []struct {
			Name  string         `json:"name"`
			Quote currency.Quote `json:"quote"`
		} `json:"data"`
		Pagination Pagination `json:"pagination"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Zen", body.Data[0].Name)
	assert.False(t, body.Data[0].Quote.Available)
	assert.Nil(t, body.Data[0].Quote.Amount)
	assert.Equal(t, currency.ContactLabel, body.Data[0].Quote.Formatted)
	assert.Equal(t, Pagination{Page: 2, Limit: 1, TotalItems: 2, TotalPages: 2}, body.Pagination)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/products?page=92233720368547760&limit=100", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body.Data, body.Pagination = nil, Pagination{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Data)
	assert.Equal(t, maxPage, body.Pagination.Page)
	assert.Equal(t, 3, body.Pagination.TotalItems)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/products?available=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/products?category=lighting", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPHandler_GetProductImages(t *testing.T) {
	srv := setupTestChiServer(t, new(MockRateProvider), new(MockCurrencyResolver))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/products/marble-carrara-white/images", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body ProductImagesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "https://img.test/Collection/Marble/Carrara White/stand/s1.webp", body.Hero)
	assert.Equal(t, []string{
		"https://img.test/Collection/Marble/Carrara White/stand/s1.webp",
		"https://img.test/Collection/Marble/Carrara White/c2.webp",
	}, body.Images)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/products/marble-carrara-white/images?hero_only=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = ProductImagesResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Images, 1)

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/products/furniture-tables-coffee-table-oslo/images", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = ProductImagesResponse{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "https://cdn.test/furnitures/Tables/Coffee Table/Oslo/1.jpg", body.Hero)
	assert.Len(t, body.Images, 2)
}

func TestHTTPHandler_Rates(t *testing.T) {
	rates := new(MockRateProvider)
	rates.On("Rates", mock.Anything).Return(testRates()).Once()
	srv := setupTestChiServer(t, rates, new(MockCurrencyResolver))

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/currency/rates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body domain.ExchangeRates
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INR", body.Base)
	assert.Equal(t, "cache", body.Source)
	assert.Equal(t, 1.8, body.Rates["JPY"])
	rates.AssertExpectations(t)
}

func TestHTTPHandler_Convert(t *testing.T) {
	rates := new(MockRateProvider)
	cur := new(MockCurrencyResolver)
	rates.On("Rates", mock.Anything).Return(testRates())
	cur.On("Resolve", mock.Anything, testVisitor, mock.Anything).Return(currency.State{Phase: currency.Auto, Code: "JPY"})
	srv := setupTestChiServer(t, rates, cur)

	testCases := []struct {
		name       string
		query      string
		wantStatus int
		wantFormat string
	}{
		{"explicit currency", "amount_inr=45000&currency=usd", http.StatusOK, "$540.00"},
		{"visitor currency", "amount_inr=45000", http.StatusOK, "¥81,000"},
		{"missing amount", "currency=USD", http.StatusBadRequest, ""},
		{"not a number", "amount_inr=lots&currency=USD", http.StatusBadRequest, ""},
		{"unsupported", "amount_inr=10&currency=NZD", http.StatusBadRequest, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/currency/convert?"+tc.query, nil)
			require.Equal(t, tc.wantStatus, resp.StatusCode)
			if tc.wantStatus != http.StatusOK {
				return
			}
			var body ConvertResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantFormat, body.Formatted)
		})
	}
}

func TestHTTPHandler_Preference(t *testing.T) {
	cur := new(MockCurrencyResolver)
	cur.On("Resolve", mock.Anything, testVisitor, "127.0.0.1").Return(currency.State{Phase: currency.Auto, Code: "INR"}).Once()
	cur.On("Select", mock.Anything, testVisitor, "GBP").Return(currency.State{Phase: currency.Manual, Code: "GBP"}, nil).Once()
	cur.On("Select", mock.Anything, testVisitor, "XYZ").Return(currency.State{}, currency.ErrUnsupportedCurrency).Once()
	cur.On("ResetAutoDetect", mock.Anything, testVisitor, "127.0.0.1").Return(currency.State{Phase: currency.Auto, Code: "INR"}, nil).Once()
	srv := setupTestChiServer(t, new(MockRateProvider), cur)

	t.Run("Get", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/currency/preference", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "auto", body["phase"])
		assert.Equal(t, "INR", body["currency"])
		assert.Equal(t, "₹", body["symbol"])
		assert.Len(t, body["supported"], len(currency.Supported))
	})

	t.Run("Put", func(t *testing.T) {
		resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/currency/preference", []byte(`{"currency":"GBP"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "manual", body["phase"])
		assert.Equal(t, "£", body["symbol"])
	})

	t.Run("PutValidation", func(t *testing.T) {
		for _, payload := range []string{`{}`, `{"currency":"usd"}`, `{"currency":"DOLLAR"}`, `not json`} {
			resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/currency/preference", []byte(payload))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)
		}
	})

	t.Run("PutUnsupported", func(t *testing.T) {
		resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/currency/preference", []byte(`{"currency":"XYZ"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Delete", func(t *testing.T) {
		resp := doRequest(t, http.MethodDelete, srv.URL+"/api/v1/currency/preference", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	cur.AssertExpectations(t)
}
