package idempotency

import (
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"
)

const Header = "Idempotency-Key"

func Key(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(Header))
}

// Store collapses concurrent calls that share a (scope, key) into one. It
// holds nothing once the call returns: replays of finished calls are served
// from wherever fn persisted its result. A panic in fn is raised in every
// caller and leaves the key free.
type Store struct {
	group singleflight.Group
}

func NewStore() *Store {
	return &Store{}
}

// Do runs fn unless a call with the same key is in flight, in which case it
// waits for that call and shares its result. replayed reports that the value
// came from another caller's fn. An empty key always runs fn.
func (s *Store) Do(scope, key string, fn func() (string, error)) (value string, replayed bool, err error) {
	if key == "" {
		v, err := fn()
		return v, false, err
	}

	led := false
	v, err, _ := s.group.Do(scope+"\x00"+key, func() (any, error) {
		led = true
		return fn()
	})
	value, _ = v.(string)
	return value, !led, err
}
