package memory

import (
	"context"
	"sync"
	"time"

	"github.com/pagedao/hub-api/pkg/contenthub"
)

// Store implements contenthub.HistoryStore as a bounded in-memory buffer
type Store struct {
	mu       sync.RWMutex
	points   []contenthub.DataPoint
	capacity int
}

// New creates a store holding at most capacity points. A non-positive
// capacity selects contenthub.DefaultHistoryCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = contenthub.DefaultHistoryCapacity
	}
	return &Store{
		points:   make([]contenthub.DataPoint, 0, capacity),
		capacity: capacity,
	}
}

// Append adds a point, evicting the oldest once the store is full.
func (s *Store) Append(ctx context.Context, point contenthub.DataPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Create a copy to avoid external modifications
	pointCopy := point
	pointCopy.Prices = make(map[string]float64, len(point.Prices))
	for k, v := range point.Prices {
		pointCopy.Prices[k] = v
	}

	if len(s.points) == s.capacity {
		copy(s.points, s.points[1:])
		s.points = s.points[:len(s.points)-1]
	}
	s.points = append(s.points, pointCopy)
	return nil
}

// Query returns the points newer than since, oldest first.
func (s *Store) Query(ctx context.Context, since time.Time) ([]contenthub.DataPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]contenthub.DataPoint, 0, len(s.points))
	for _, p := range s.points {
		if since.IsZero() || p.Timestamp.After(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Capacity returns the maximum number of points kept.
func (s *Store) Capacity() int {
	return s.capacity
}
