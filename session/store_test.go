package session

import (
	"testing"
	"time"

	"tripflow/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutMintsSessionID(t *testing.T) {
	s := NewStore(time.Minute)
	plan := &pipeline.TravelPlan{Success: true}

	id := s.Put("", plan)
	require.NotEmpty(t, id)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, plan, got)
}

func TestPutKeepsCallerID(t *testing.T) {
	s := NewStore(time.Minute)
	id := s.Put("my-session", &pipeline.TravelPlan{})
	assert.Equal(t, "my-session", id)

	_, ok := s.Get("my-session")
	assert.True(t, ok)
}

func TestPutOverwritesSameSession(t *testing.T) {
	s := NewStore(time.Minute)
	first := &pipeline.TravelPlan{Summary: pipeline.Summary{Destination: "Goa"}}
	second := &pipeline.TravelPlan{Summary: pipeline.Summary{Destination: "Jaipur"}}

	s.Put("id", first)
	s.Put("id", second)

	got, ok := s.Get("id")
	require.True(t, ok)
	assert.Equal(t, "Jaipur", got.Summary.Destination)
	assert.Equal(t, 1, s.Count())
}

func TestGetUnknownSession(t *testing.T) {
	s := NewStore(time.Minute)
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestSessionsExpire(t *testing.T) {
	s := NewStore(10 * time.Millisecond)
	id := s.Put("", &pipeline.TravelPlan{})

	time.Sleep(30 * time.Millisecond)

	_, ok := s.Get(id)
	assert.False(t, ok)
}

func TestCount(t *testing.T) {
	s := NewStore(time.Minute)
	assert.Equal(t, 0, s.Count())
	s.Put("", &pipeline.TravelPlan{})
	s.Put("", &pipeline.TravelPlan{})
	assert.Equal(t, 2, s.Count())
}
