package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	id "personlens/pkg/domain"
	"personlens/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded map store for tests and local runs.
type InMemoryStore struct {
	mu   sync.RWMutex
	subs map[id.SubscriptionID]*Subscription
}

// NewInMemoryStore constructs an empty in-memory subscription store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{subs: make(map[id.SubscriptionID]*Subscription)}
}

func (s *InMemoryStore) Create(_ context.Context, sub *Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subs[sub.ID]; exists {
		return sentinel.ErrConflict
	}
	s.subs[sub.ID] = cloneSubscription(sub)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, subID id.SubscriptionID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subs[subID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneSubscription(sub), nil
}

func (s *InMemoryStore) ListDue(_ context.Context, now time.Time) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var due []*Subscription
	for _, sub := range s.subs {
		if sub.Active && !sub.NextCheckAt.After(now) {
			due = append(due, cloneSubscription(sub))
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextCheckAt.Before(due[j].NextCheckAt) })
	return due, nil
}

func (s *InMemoryStore) Update(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.subs[sub.ID] = cloneSubscription(sub)
	return nil
}

func cloneSubscription(sub *Subscription) *Subscription {
	out := *sub
	if sub.LastCheckedAt != nil {
		t := *sub.LastCheckedAt
		out.LastCheckedAt = &t
	}
	if sub.LastProfile != nil {
		p := *sub.LastProfile
		p.Names = append([]string(nil), sub.LastProfile.Names...)
		p.Emails = append([]string(nil), sub.LastProfile.Emails...)
		p.Phones = append([]string(nil), sub.LastProfile.Phones...)
		p.Addresses = append([]string(nil), sub.LastProfile.Addresses...)
		p.EmploymentHistory = append([]string(nil), sub.LastProfile.EmploymentHistory...)
		p.DataBreaches = append([]string(nil), sub.LastProfile.DataBreaches...)
		if sub.LastProfile.SocialMedia != nil {
			p.SocialMedia = make(map[string]string, len(sub.LastProfile.SocialMedia))
			for k, v := range sub.LastProfile.SocialMedia {
				p.SocialMedia[k] = v
			}
		}
		out.LastProfile = &p
	}
	return &out
}
