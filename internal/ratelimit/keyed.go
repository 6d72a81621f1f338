package ratelimit

import (
	"sync"
	"time"
)

// KeyedConfig configures a KeyedLimiter.
type KeyedConfig struct {
	Burst      int     // Bucket capacity per key
	RefillRate float64 // Tokens per second per key

	// CleanupPeriod is how often idle keys are dropped. Zero disables cleanup.
	CleanupPeriod time.Duration

	// OnDrop runs when a request is rejected.
	OnDrop func()
	// OnUpdate receives the number of tracked keys after each cleanup.
	OnUpdate func(active int)
}

// KeyedLimiter keeps one token bucket per key (client IP) and periodically
// forgets keys whose bucket has refilled.
type KeyedLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*Limiter
	cfg     KeyedConfig
	now     func() time.Time
	stopCh  chan struct{}
	stop    sync.Once
}

// NewKeyedLimiter creates a KeyedLimiter. Call Stop to end the cleanup loop.
func NewKeyedLimiter(cfg KeyedConfig) *KeyedLimiter {
	kl := &KeyedLimiter{
		buckets: make(map[string]*Limiter),
		cfg:     cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	if cfg.CleanupPeriod > 0 {
		go kl.cleanupLoop()
	}
	return kl
}

// Allow reports whether a request for key may proceed. An empty key is
// always allowed.
func (kl *KeyedLimiter) Allow(key string) bool {
	if key == "" {
		return true
	}
	if kl.bucket(key).Allow() {
		return true
	}
	if kl.cfg.OnDrop != nil {
		kl.cfg.OnDrop()
	}
	return false
}

// RetryAfter returns how long key must wait for its next token.
func (kl *KeyedLimiter) RetryAfter(key string) time.Duration {
	kl.mu.RLock()
	b, ok := kl.buckets[key]
	kl.mu.RUnlock()
	if !ok {
		return 0
	}
	return b.RetryAfter()
}

// Active returns the number of tracked keys.
func (kl *KeyedLimiter) Active() int {
	kl.mu.RLock()
	defer kl.mu.RUnlock()
	return len(kl.buckets)
}

func (kl *KeyedLimiter) bucket(key string) *Limiter {
	kl.mu.RLock()
	b, ok := kl.buckets[key]
	kl.mu.RUnlock()
	if ok {
		return b
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if b, ok = kl.buckets[key]; ok {
		return b
	}
	b = newWithClock(kl.cfg.Burst, kl.cfg.RefillRate, kl.now)
	kl.buckets[key] = b
	return b
}

// Cleanup drops idle keys and returns how many remain.
func (kl *KeyedLimiter) Cleanup() int {
	kl.mu.Lock()
	for key, b := range kl.buckets {
		if b.IsFull() {
			delete(kl.buckets, key)
		}
	}
	active := len(kl.buckets)
	kl.mu.Unlock()

	if kl.cfg.OnUpdate != nil {
		kl.cfg.OnUpdate(active)
	}
	return active
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.cfg.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-kl.stopCh:
			return
		case <-ticker.C:
			kl.Cleanup()
		}
	}
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (kl *KeyedLimiter) Stop() {
	kl.stop.Do(func() { close(kl.stopCh) })
}
