package tokenstore

import (
	"sync"
	"time"
)

// in-memory revocation set for logged-out JWT ids. Entries carry the token's
// own expiry so the set cannot grow past the live token population. For a
// multi-instance deployment this would move to Redis or the DB.
var (
	mu      sync.RWMutex
	revoked = map[string]time.Time{}
)

// Revoke marks jti as logged out until exp.
func Revoke(jti string, exp time.Time) {
	if jti == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	revoked[jti] = exp
	for k, e := range revoked {
		if time.Now().After(e) {
			delete(revoked, k)
		}
	}
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	exp, ok := revoked[jti]
	mu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		mu.Lock()
		delete(revoked, jti)
		mu.Unlock()
		return false
	}
	return true
}
