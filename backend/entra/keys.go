package entra

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/upb/unified-workspace/backend/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

var errFetchThrottled = fmt.Errorf("%w: fetch rate limit exceeded", ErrSigningKeyNotFound)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeyResolverConfig holds configuration for KeyResolver
type KeyResolverConfig struct {
	JWKSURL string

	// CacheTTL bounds how long a fetched key set is trusted. Zero keeps keys
	// for the lifetime of the process.
	CacheTTL time.Duration

	// FetchRate and FetchBurst limit outbound JWKS requests.
	FetchRate  rate.Limit
	FetchBurst int

	HTTPTimeout time.Duration
	HTTPClient  *http.Client
	Metrics     observability.AuthMetrics
	Logger      *zap.Logger
}

// KeyResolver resolves token key IDs to RSA public keys from a remote JWKS
// endpoint. It is safe for concurrent use: lookups share a read lock,
// concurrent misses for the same kid share a single fetch.
type KeyResolver struct {
	jwksURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	limiter    *rate.Limiter
	group      singleflight.Group
	metrics    observability.AuthMetrics
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewKeyResolver creates a KeyResolver. Unset rate fields default to ten
// fetches per minute.
func NewKeyResolver(cfg KeyResolverConfig) *KeyResolver {
	if cfg.FetchRate == 0 {
		cfg.FetchRate = rate.Every(6 * time.Second)
	}
	if cfg.FetchBurst == 0 {
		cfg.FetchBurst = 10
	}
	if cfg.HTTPTimeout == 0 {
		cfg.HTTPTimeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &KeyResolver{
		jwksURL:    cfg.JWKSURL,
		httpClient: cfg.HTTPClient,
		cacheTTL:   cfg.CacheTTL,
		limiter:    rate.NewLimiter(cfg.FetchRate, cfg.FetchBurst),
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		now:        time.Now,
		keys:       make(map[string]*rsa.PublicKey),
	}
}

// Resolve returns the public key for kid, fetching the key set on a miss.
func (r *KeyResolver) Resolve(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, fresh := r.lookup(kid)
	if key != nil && fresh {
		return key, nil
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(kid, func() (interface{}, error) {
		// Another caller may have refreshed the set while we waited
		if key, fresh := r.lookup(kid); key != nil && fresh {
			return key, nil
		}

		if !r.limiter.Allow() {
			r.metrics.RecordKeyFetchThrottled()
			r.logger.Warn("jwks fetch throttled", zap.String("kid", kid))
			return nil, fmt.Errorf("%w: kid %s", errFetchThrottled, kid)
		}

		keys, err := r.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		r.store(keys)

		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("%w: kid %s", ErrSigningKeyNotFound, kid)
		}
		return key, nil
	})

	var v interface{}
	var err error
	select {
	case res := <-ch:
		v, err = res.Val, res.Err
	case <-ctx.Done():
		err = fmt.Errorf("%w: %w", ErrKeyFetchFailed, ctx.Err())
	}
	if err != nil {
		// A stale key beats no key when the endpoint is down
		if key != nil && staleUsable(err) {
			r.logger.Warn("serving stale signing key", zap.String("kid", kid), zap.Error(err))
			return key, nil
		}
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

// lookup returns the cached key for kid and whether the key set is still
// within its TTL.
func (r *KeyResolver) lookup(kid string) (*rsa.PublicKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	key, ok := r.keys[kid]
	if !ok {
		return nil, false
	}
	if r.cacheTTL > 0 && r.now().Sub(r.fetchedAt) > r.cacheTTL {
		return key, false
	}
	return key, true
}

func (r *KeyResolver) store(keys map[string]*rsa.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = keys
	r.fetchedAt = r.now()
}

// fetch retrieves and decodes the key set
func (r *KeyResolver) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	start := time.Now()
	keys, err := r.doFetch(ctx)
	r.metrics.RecordKeyFetch(err == nil, time.Since(start))
	if err != nil {
		r.logger.Error("jwks fetch failed", zap.String("url", r.jwksURL), zap.Error(err))
		return nil, err
	}
	r.logger.Info("jwks fetched", zap.String("url", r.jwksURL), zap.Int("keys", len(keys)))
	return keys, nil
}

func (r *KeyResolver) doFetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.jwksURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrKeyFetchFailed, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFetchFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrKeyFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("%w: failed to decode JWKS: %v", ErrKeyFetchFailed, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for i := range jwks.Keys {
		jwk := &jwks.Keys[i]
		if jwk.Kty != "RSA" || jwk.Kid == "" {
			continue
		}
		if jwk.Use != "" && jwk.Use != "sig" {
			continue
		}
		key, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			r.logger.Warn("skipping malformed jwk", zap.String("kid", jwk.Kid), zap.Error(err))
			continue
		}
		keys[jwk.Kid] = key
	}
	return keys, nil
}

// Invalidate drops every cached key. The next Resolve fetches again.
func (r *KeyResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = make(map[string]*rsa.PublicKey)
	r.fetchedAt = time.Time{}
}

// KeyResolverStats is a snapshot of the cache.
type KeyResolverStats struct {
	CachedKeys int       `json:"cached_keys"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Stats returns cache statistics
func (r *KeyResolver) Stats() KeyResolverStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return KeyResolverStats{CachedKeys: len(r.keys), FetchedAt: r.fetchedAt}
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, fmt.Errorf("empty modulus or exponent")
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}

// staleUsable reports whether an expired cached key may still be served
// after err. A kid missing from a fresh key set is never served stale.
func staleUsable(err error) bool {
	return errors.Is(err, ErrKeyFetchFailed) || errors.Is(err, errFetchThrottled)
}
