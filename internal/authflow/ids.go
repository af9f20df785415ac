package authflow

import (
	"strconv"
	"sync"

	"github.com/jonboulle/clockwork"
)

// idSource hands out ids of the form google_<unix millis>. Values are
// strictly increasing per source, so two calls within the same
// millisecond still get distinct ids.
type idSource struct {
	clock clockwork.Clock

	mu   sync.Mutex
	last int64
}

func newIDSource(clock clockwork.Clock) *idSource {
	return &idSource{clock: clock}
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.clock.Now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ProviderGoogle + "_" + strconv.FormatInt(ms, 10)
}
