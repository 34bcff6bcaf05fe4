package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DeliveryStatus represents the status of a reminder delivery attempt
type DeliveryStatus string

const (
	DeliveryStatusPending DeliveryStatus = "pending"
	DeliveryStatusSuccess DeliveryStatus = "success"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// DeliveryLog records one reminder delivery attempt
type DeliveryLog struct {
	ID           string         `json:"id"`
	Kind         ReminderKind   `json:"kind"`
	Email        string         `json:"email"`
	Status       DeliveryStatus `json:"status"`
	ErrorMessage string         `json:"error_message,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Duration     time.Duration  `json:"duration,omitempty"`
}

// DeliveryStats holds aggregate delivery counts
type DeliveryStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// DeliveryLogStore keeps a bounded in-memory record of recent delivery
// attempts. Reminders are fire-and-forget, so this is the only place a
// failed send is visible after the fact. Entries are never read back on
// the hot path, so LRU eviction degrades to oldest-first.
type DeliveryLogStore struct {
	cache *lru.Cache[string, *DeliveryLog]
	mutex sync.RWMutex
}

// NewDeliveryLogStore creates a store keeping at most maxLogs entries
func NewDeliveryLogStore(maxLogs int) *DeliveryLogStore {
	if maxLogs <= 0 {
		maxLogs = 1000
	}
	cache, _ := lru.New[string, *DeliveryLog](maxLogs)
	return &DeliveryLogStore{cache: cache}
}

// Begin records the start of a delivery attempt
func (s *DeliveryLogStore) Begin(kind ReminderKind, email string) *DeliveryLog {
	entry := &DeliveryLog{
		ID:        uuid.New().String(),
		Kind:      kind,
		Email:     email,
		Status:    DeliveryStatusPending,
		CreatedAt: time.Now(),
	}
	s.cache.Add(entry.ID, entry)
	return entry
}

// Complete marks a delivery attempt as finished
func (s *DeliveryLogStore) Complete(entry *DeliveryLog, err error) {
	now := time.Now()

	s.mutex.Lock()
	defer s.mutex.Unlock()
	entry.CompletedAt = &now
	entry.Duration = now.Sub(entry.CreatedAt)
	if err != nil {
		entry.Status = DeliveryStatusFailed
		entry.ErrorMessage = err.Error()
	} else {
		entry.Status = DeliveryStatusSuccess
	}
}

// Recent returns up to limit entries, newest first
func (s *DeliveryLogStore) Recent(limit int) []*DeliveryLog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := s.cache.Values()
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Stats returns aggregate counts over the retained entries
func (s *DeliveryLogStore) Stats() DeliveryStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stats := DeliveryStats{}
	for _, entry := range s.cache.Values() {
		stats.Total++
		switch entry.Status {
		case DeliveryStatusSuccess:
			stats.Success++
		case DeliveryStatusFailed:
			stats.Failed++
		case DeliveryStatusPending:
			stats.Pending++
		}
	}
	return stats
}
