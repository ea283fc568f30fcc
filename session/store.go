package session

import (
	"time"

	"tripflow/pipeline"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store keeps completed travel plans in process memory, keyed by session id,
// for conversational follow-ups and PDF export. Nothing is durable across
// restarts; entries expire after the TTL.
type Store struct {
	plans *cache.Cache
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		plans: cache.New(ttl, 10*time.Minute),
	}
}

// Put stores a plan under id; when id is empty a new session id is minted.
// Returns the id the plan is stored under.
func (s *Store) Put(id string, plan *pipeline.TravelPlan) string {
	if id == "" {
		id = uuid.New().String()
	}
	s.plans.Set(id, plan, cache.DefaultExpiration)
	return id
}

// Get returns the plan for id, if the session is still alive.
func (s *Store) Get(id string) (*pipeline.TravelPlan, bool) {
	v, found := s.plans.Get(id)
	if !found {
		return nil, false
	}
	plan, ok := v.(*pipeline.TravelPlan)
	return plan, ok
}

// Count reports the number of live sessions (health endpoint).
func (s *Store) Count() int {
	return s.plans.ItemCount()
}
