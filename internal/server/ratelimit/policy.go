package ratelimit

import (
	"fmt"
	"time"
)

// Policy is a named limit over a trailing window.
type Policy struct {
	Limit  int
	Window time.Duration
}

func (p Policy) String() string {
	return fmt.Sprintf("%d/%s", p.Limit, p.Window)
}

// Check hits key under policy p. Keys are namespaced by scope so the same
// identifier (an e-mail, say) can be limited separately per endpoint.
func (l *Limiter) Check(scope, key string, p Policy) Decision {
	return l.Hit(scope+":"+key, p.Limit, p.Window)
}

// Forget resets key within scope.
func (l *Limiter) Forget(scope, key string) {
	l.Reset(scope + ":" + key)
}
