package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stone-catalog-service/internal/domain"
	"stone-catalog-service/internal/store"
)

// RateFetcher fetches a fresh table of "1 base = X code" rates.
type RateFetcher interface {
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
}

// APIClient talks to a currencyapi.com compatible endpoint.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewAPIClient creates an APIClient. An empty apiKey makes every fetch fail
// with ErrMissingAPIKey.
func NewAPIClient(httpClient *http.Client, baseURL, apiKey string) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIClient{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey}
}

type latestResponse struct {
	Data map[string]struct {
		Code  string  `json:"code"`
		Value float64 `json:"value"`
	} `json:"data"`
}

// FetchRates implements RateFetcher.
func (c *APIClient) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("base_currency", base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/latest?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("currency: build rates request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("currency: fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("currency: fetch rates: unexpected status %d", resp.StatusCode)
	}
	var body latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("currency: decode rates: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, errors.New("currency: rates response has no data")
	}

	rates := make(map[string]float64, len(body.Data))
	for code, info := range body.Data {
		rates[code] = info.Value
	}
	return rates, nil
}

// RateService serves the INR exchange-rate table. A fetched table is kept in
// memory and in the store for ttl; when it can't be refreshed the service
// falls back to the stale stored table, then to the hardcoded one. Rates
// never fails.
type RateService struct {
	store   store.RateStorer
	fetcher RateFetcher

	ttl          time.Duration
	retryAfter   time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu            sync.RWMutex
	current       *domain.ExchangeRates
	fallback      *domain.ExchangeRates
	fallbackUntil time.Time

	group singleflight.Group
}

// RateServiceOption configures a RateService.
type RateServiceOption func(*RateService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RateServiceOption {
	return func(s *RateService) { s.now = now }
}

// WithRetryAfter sets how long a fallback table is served before the
// upstream API is tried again.
func WithRetryAfter(d time.Duration) RateServiceOption {
	return func(s *RateService) { s.retryAfter = d }
}

// WithFetchTimeout bounds a single refresh.
func WithFetchTimeout(d time.Duration) RateServiceOption {
	return func(s *RateService) { s.fetchTimeout = d }
}

// NewRateService creates a RateService. rateStore may be nil, in which case
// rates live in memory only.
func NewRateService(rateStore store.RateStorer, fetcher RateFetcher, ttl time.Duration, opts ...RateServiceOption) *RateService {
	s := &RateService{
		store:        rateStore,
		fetcher:      fetcher,
		ttl:          ttl,
		retryAfter:   30 * time.Minute,
		fetchTimeout: 10 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RateService) fresh(r *domain.ExchangeRates) bool {
	return r != nil && s.now().Sub(r.LastUpdated) < s.ttl
}

// Rates returns a copy of the current table. Concurrent callers that miss
// the in-memory copy share a single refresh.
func (s *RateService) Rates(ctx context.Context) *domain.ExchangeRates {
	s.mu.RLock()
	current, fallback, until := s.current, s.fallback, s.fallbackUntil
	s.mu.RUnlock()

	if s.fresh(current) {
		r := current.Clone()
		r.Source = domain.RateSourceMemory
		return r
	}
	if fallback != nil && s.now().Before(until) {
		return fallback.Clone()
	}

	v, _, _ := s.group.Do("rates:"+Reference, func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.refresh(refreshCtx), nil
	})
	return v.(*domain.ExchangeRates).Clone()
}

func (s *RateService) refresh(ctx context.Context) *domain.ExchangeRates {
	var cached *domain.ExchangeRates
	if s.store != nil {
		r, err := s.store.GetExchangeRates(ctx, Reference)
		switch {
		case err == nil:
			cached = r
		case !errors.Is(err, store.ErrRatesNotFound):
			log.Printf("WARN: Failed to read cached exchange rates: %v", err)
		}
	}

	if s.fresh(cached) {
		log.Println("INFO: Serving exchange rates from cache")
		cached.Source = domain.RateSourceCache
		s.setCurrent(cached)
		return cached
	}

	log.Println("INFO: Exchange rates stale or missing, fetching fresh rates")
	fetched, err := s.fetcher.FetchRates(ctx, Reference)
	if err != nil {
		source := domain.RateSourceStaleOnError
		if errors.Is(err, ErrMissingAPIKey) {
			source = domain.RateSourceStaleCache
		}
		log.Printf("ERROR: Failed to fetch exchange rates: %v", err)
		return s.degrade(cached, source)
	}

	fetched[Reference] = 1
	rates := &domain.ExchangeRates{
		Base:        Reference,
		Rates:       fetched,
		LastUpdated: s.now(),
		Source:      domain.RateSourceAPI,
	}
	if s.store != nil {
		if err := s.store.UpsertExchangeRates(ctx, rates); err != nil {
			log.Printf("WARN: Failed to persist exchange rates: %v", err)
		}
	}
	s.setCurrent(rates)
	return rates
}

// degrade picks the stale cached table when there is one and the hardcoded
// table otherwise, and remembers it until the next retry.
func (s *RateService) degrade(cached *domain.ExchangeRates, staleSource string) *domain.ExchangeRates {
	var r *domain.ExchangeRates
	if cached != nil {
		log.Printf("WARN: Using stale exchange rates from %s", cached.LastUpdated.Format(time.RFC3339))
		r = cached
		r.Source = staleSource
	} else {
		log.Println("WARN: Using hardcoded exchange rates")
		r = DefaultRates(s.now())
	}

	s.mu.Lock()
	s.fallback = r
	s.fallbackUntil = s.now().Add(s.retryAfter)
	s.mu.Unlock()
	return r
}

func (s *RateService) setCurrent(r *domain.ExchangeRates) {
	s.mu.Lock()
	s.current = r
	s.fallback = nil
	s.mu.Unlock()
}
