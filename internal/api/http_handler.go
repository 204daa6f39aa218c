package api

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"stone-catalog-service/internal/catalog"
	"stone-catalog-service/internal/currency"
	"stone-catalog-service/internal/domain"
)

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	catalog  CatalogReader
	rates    RateProvider
	currency CurrencyResolver
	images   ImageLoader
	validate *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(c CatalogReader, rates RateProvider, cur CurrencyResolver, images ImageLoader) *HTTPHandler {
	return &HTTPHandler{
		catalog:  c,
		rates:    rates,
		currency: cur,
		images:   images,
		validate: validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// displayCurrency resolves the requesting visitor's currency.
func (h *HTTPHandler) displayCurrency(r *http.Request) string {
	return h.currency.Resolve(r.Context(), VisitorID(r.Context()), clientIP(r)).Code
}

// --- Catalog Handlers ---

func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"data": h.catalog.Categories()})
}

func (h *HTTPHandler) GetCategoryByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "categoryId")
	category, err := h.catalog.CategoryByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		log.Printf("ERROR: GetCategoryByID for %q failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve category")
		return
	}
	respondWithJSON(w, http.StatusOK, category)
}

// maxPage keeps (page-1)*limit well inside int range.
const maxPage = math.MaxInt32

// Pagination matches the listing envelope used across the API.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 24 // Default limit
	}
	if limit > 100 { // Max limit
		limit = 100
	}
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}

	filter := catalog.ProductFilter{
		Category:    q.Get("category"),
		Subcategory: q.Get("subcategory"),
		Query:       q.Get("q"),
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}
	if s := q.Get("available"); s != "" {
		available, err := strconv.ParseBool(s)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid value for 'available'")
			return
		}
		filter.Available = &available
	}
	if filter.Category != "" && filter.Category != domain.CategoryFurniture && filter.Category != domain.CategorySlabs {
		respondWithError(w, http.StatusBadRequest, "Invalid category: "+filter.Category)
		return
	}

	products, total := h.catalog.FindProducts(filter)
	code := h.displayCurrency(r)
	rates := h.rates.Rates(r.Context())

	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = newProductView(p, code, rates)
	}

	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	respondWithJSON(w, http.StatusOK, struct {
		Data       []ProductView `json:"data"`
		Pagination Pagination    `json:"pagination"`
	}{
		Data:       views,
		Pagination: Pagination{Page: page, Limit: limit, TotalItems: total, TotalPages: totalPages},
	})
}

func (h *HTTPHandler) productOr404(w http.ResponseWriter, r *http.Request) (domain.Product, bool) {
	id := chi.URLParam(r, "productId")
	p, err := h.catalog.ProductByID(id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return domain.Product{}, false
		}
		log.Printf("ERROR: GetProductByID for %q failed: %v", id, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve product")
		return domain.Product{}, false
	}
	return p, true
}

func (h *HTTPHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	p, ok := h.productOr404(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, newProductView(p, h.displayCurrency(r), h.rates.Rates(r.Context())))
}

// ProductImagesResponse lists a product's image URLs, hero first.
type ProductImagesResponse struct {
	Hero   string   `json:"hero"`
	Images []string `json:"images"`
}

// GetProductImages resolves a product's images. Slab images are stored as
// asset paths and resolved here; ?hero_only=true skips the delayed rest.
func (h *HTTPHandler) GetProductImages(w http.ResponseWriter, r *http.Request) {
	p, ok := h.productOr404(w, r)
	if !ok {
		return
	}

	ordered := p.SortedImages
	if len(ordered) == 0 {
		ordered = p.Images
	}
	if p.Category == domain.CategoryFurniture {
		hero := p.Image
		if hero == "" && len(ordered) > 0 {
			hero = ordered[0]
		}
		respondWithJSON(w, http.StatusOK, ProductImagesResponse{Hero: hero, Images: ordered})
		return
	}

	heroOnly, _ := strconv.ParseBool(r.URL.Query().Get("hero_only"))
	hero, rest := h.images.Load(r.Context(), ordered)
	resp := ProductImagesResponse{Hero: hero, Images: []string{}}
	if hero != "" {
		resp.Images = append(resp.Images, hero)
	}
	if !heroOnly {
		if urls, ok := <-rest; ok {
			resp.Images = append(resp.Images, urls...)
		}
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// --- Currency Handlers ---

func (h *HTTPHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.rates.Rates(r.Context()))
}

// ConvertQuery defines the accepted query for a conversion.
type ConvertQuery struct {
	AmountINR string `validate:"required,numeric"`
	Currency  string `validate:"omitempty,len=3,uppercase"`
}

// ConvertResponse is the result of converting an INR amount.
type ConvertResponse struct {
	AmountINR decimal.Decimal `json:"amount_inr"`
	Currency  string          `json:"currency"`
	Amount    decimal.Decimal `json:"amount"`
	Formatted string          `json:"formatted"`
	Source    string          `json:"source"`
}

func (h *HTTPHandler) Convert(w http.ResponseWriter, r *http.Request) {
	input := ConvertQuery{
		AmountINR: r.URL.Query().Get("amount_inr"),
		Currency:  strings.ToUpper(r.URL.Query().Get("currency")),
	}
	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	amount, err := decimal.NewFromString(input.AmountINR)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid amount_inr")
		return
	}

	code := input.Currency
	if code == "" {
		code = h.displayCurrency(r)
	}
	if !currency.IsSupported(code) {
		respondWithError(w, http.StatusBadRequest, currency.ErrUnsupportedCurrency.Error()+": "+code)
		return
	}

	rates := h.rates.Rates(r.Context())
	converted, shown := currency.Price(amount, code, rates, nil)
	respondWithJSON(w, http.StatusOK, ConvertResponse{
		AmountINR: amount,
		Currency:  shown,
		Amount:    converted,
		Formatted: currency.Format(converted, shown),
		Source:    rates.Source,
	})
}

// PreferenceResponse describes a visitor's currency state.
type PreferenceResponse struct {
	currency.State
	Symbol    string   `json:"symbol"`
	Supported []string `json:"supported"`
}

func preferenceResponse(s currency.State) PreferenceResponse {
	return PreferenceResponse{State: s, Symbol: currency.Symbol(s.Code), Supported: currency.Supported}
}

func (h *HTTPHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	state := h.currency.Resolve(r.Context(), VisitorID(r.Context()), clientIP(r))
	respondWithJSON(w, http.StatusOK, preferenceResponse(state))
}

// PreferenceInput defines the expected input for selecting a currency.
type PreferenceInput struct {
	Currency string `json:"currency" validate:"required,len=3,uppercase"`
}

func (h *HTTPHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	var input PreferenceInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	state, err := h.currency.Select(r.Context(), VisitorID(r.Context()), input.Currency)
	if err != nil {
		if errors.Is(err, currency.ErrUnsupportedCurrency) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("ERROR: SetPreference failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save currency preference")
		return
	}
	respondWithJSON(w, http.StatusOK, preferenceResponse(state))
}

// ResetPreference re-enables auto-detection for the visitor.
func (h *HTTPHandler) ResetPreference(w http.ResponseWriter, r *http.Request) {
	state, err := h.currency.ResetAutoDetect(r.Context(), VisitorID(r.Context()), clientIP(r))
	if err != nil {
		log.Printf("ERROR: ResetPreference failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to reset currency preference")
		return
	}
	respondWithJSON(w, http.StatusOK, preferenceResponse(state))
}

// RegisterRoutes registers all HTTP routes for the service.
func (h *HTTPHandler) RegisterRoutes(r chi.Router, secureCookie bool) {
	r.Group(func(r chi.Router) {
		r.Use(VisitorMiddleware(secureCookie))

		r.Route("/api/v1/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)              // GET /api/v1/categories
			r.Get("/{categoryId}", h.GetCategoryByID) // GET /api/v1/categories/{categoryId}
		})

		r.Route("/api/v1/products", func(r chi.Router) {
			r.Get("/", h.ListProducts) // GET /api/v1/products
			r.Route("/{productId}", func(r chi.Router) {
				r.Get("/", h.GetProductByID)         // GET /api/v1/products/{productId}
				r.Get("/images", h.GetProductImages) // GET /api/v1/products/{productId}/images
			})
		})

		r.Route("/api/v1/currency", func(r chi.Router) {
			r.Get("/rates", h.GetRates)  // GET /api/v1/currency/rates
			r.Get("/convert", h.Convert) // GET /api/v1/currency/convert
			r.Get("/preference", h.GetPreference)
			r.Put("/preference", h.SetPreference)
			r.Delete("/preference", h.ResetPreference)
		})
	})
	log.Println("INFO: HTTP routes registered under /api/v1")
}
