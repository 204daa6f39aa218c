package catalog

import (
	"context"
	"sync"
	"time"
)

// Resolver maps a logical asset path to its hosted URL. Implementations must
// be total and return the same URL for the same path.
type Resolver interface {
	Resolve(path string) string
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(path string) string

func (f ResolverFunc) Resolve(path string) string { return f(path) }

// ImageLoader resolves slab images lazily: the hero image right away, the
// rest after a short delay so they don't compete with the first paint.
type ImageLoader struct {
	resolver Resolver
	delay    time.Duration

	mu    sync.RWMutex
	cache map[string]string
}

// NewImageLoader creates an ImageLoader. A zero delay resolves the remaining
// images as soon as the goroutine is scheduled.
func NewImageLoader(resolver Resolver, delay time.Duration) *ImageLoader {
	return &ImageLoader{
		resolver: resolver,
		delay:    delay,
		cache:    make(map[string]string),
	}
}

// Resolve returns the URL for path, memoized per loader.
func (l *ImageLoader) Resolve(path string) string {
	l.mu.RLock()
	url, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return url
	}

	url = l.resolver.Resolve(path)
	l.mu.Lock()
	l.cache[path] = url
	l.mu.Unlock()
	return url
}

// Load resolves paths[0] immediately and the remaining paths after the
// loader's delay. The channel delivers at most one slice and is then closed;
// if ctx ends before the delay elapses it is closed without a value.
func (l *ImageLoader) Load(ctx context.Context, paths []string) (string, <-chan []string) {
	rest := make(chan []string, 1)
	if len(paths) == 0 {
		close(rest)
		return "", rest
	}

	hero := l.Resolve(paths[0])
	go func() {
		defer close(rest)

		timer := time.NewTimer(l.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		urls := make([]string, 0, len(paths)-1)
		for _, p := range paths[1:] {
			urls = append(urls, l.Resolve(p))
		}
		rest <- urls
	}()
	return hero, rest
}
