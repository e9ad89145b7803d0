package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
}

var (
	rlMu     sync.Mutex
	buckets  = map[string]*bucket{}
	window   = 10 * time.Second
	capacity = 5

	dupMu   sync.Mutex
	lastMsg = map[string]struct {
		text string
		ts   time.Time
	}{}
	dupTTL = 45 * time.Second
)

// SetRateLimitConfig applies the configured window and bucket capacity.
func SetRateLimitConfig(win time.Duration, cap int) {
	rlMu.Lock()
	window = win
	capacity = cap
	rlMu.Unlock()
}

func SetDuplicateTTL(ttl time.Duration) {
	dupMu.Lock()
	dupTTL = ttl
	dupMu.Unlock()
}

// RateLimit is a token bucket keyed by resolved user + client IP, applied to
// the chat POST endpoints.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := limitKey(c)
		now := time.Now()

		rlMu.Lock()
		b := buckets[key]
		if b == nil {
			b = &bucket{tokens: capacity, lastRefill: now}
			buckets[key] = b
		}
		elapsed := now.Sub(b.lastRefill)
		if elapsed > 0 {
			add := int(float64(capacity) * (float64(elapsed) / float64(window)))
			if add > 0 {
				b.tokens += add
				if b.tokens > capacity {
					b.tokens = capacity
				}
				b.lastRefill = now
			}
		}
		if b.tokens <= 0 {
			retry := int(window.Seconds())
			rlMu.Unlock()
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		b.tokens--
		rlMu.Unlock()

		c.Next()
	}
}

// DuplicateGuard reports whether the message may proceed: an identical text
// from the same key inside the window is treated as an accidental
// double-submit and blocked.
func DuplicateGuard(key, text string) bool {
	text = strings.TrimSpace(text)
	now := time.Now()
	dupMu.Lock()
	defer dupMu.Unlock()
	entry, ok := lastMsg[key]
	if ok && entry.text == text && now.Sub(entry.ts) < dupTTL {
		return false
	}
	lastMsg[key] = struct {
		text string
		ts   time.Time
	}{text: text, ts: now}
	return true
}

func limitKey(c *gin.Context) string {
	uid := ""
	if v, ok := c.Get(ContextUserIDKey); ok {
		if id, ok := v.(uint); ok {
			uid = strconv.FormatUint(uint64(id), 10)
		}
	}
	ip := strings.TrimSpace(c.ClientIP())
	if ip == "" {
		host, _, _ := net.SplitHostPort(strings.TrimSpace(c.Request.RemoteAddr))
		ip = host
	}
	return uid + "@" + ip
}
