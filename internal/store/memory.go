package store

import (
	"maps"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

// MemoryStore acumula buckets por (canal, ventana). Se materializa por corrida;
// el lock solo protege lecturas concurrentes desde el servidor HTTP.
type MemoryStore struct {
	mu        sync.RWMutex
	agg       map[models.BucketKey]*models.AggregateBucket
	campaigns map[models.BucketKey]map[string]struct{}
	seen      map[string]struct{} // idempotencia por-record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		agg:       make(map[models.BucketKey]*models.AggregateBucket),
		campaigns: make(map[models.BucketKey]map[string]struct{}),
		seen:      make(map[string]struct{}),
	}
}

func (s *MemoryStore) MarkSeen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// bucket debe llamarse con el lock tomado.
func (s *MemoryStore) bucket(k models.BucketKey, end time.Time) *models.AggregateBucket {
	b, ok := s.agg[k]
	if !ok {
		b = &models.AggregateBucket{Channel: k.Channel, WindowStart: k.WindowStart, WindowEnd: end}
		s.agg[k] = b
	}
	return b
}

func (s *MemoryStore) AddLead(k models.BucketKey, end time.Time, l models.NormalizedLead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucket(k, end)
	b.Leads++
	switch l.Stage {
	case models.StageApplication:
		b.Applications++
	case models.StageEnrolled:
		b.Applications++
		b.Enrollments++
	}
	if b.Tiers == nil {
		b.Tiers = make(map[models.Tier]int)
	}
	b.Tiers[l.Tier]++
}

func (s *MemoryStore) AddCampaign(k models.BucketKey, end time.Time, m models.CampaignMetric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucket(k, end)
	b.Spend += maxf(m.Spend)
	b.Impressions += max0(m.Impressions)
	b.Clicks += max0(m.Clicks)
	b.PlatformConversions += maxf(m.Conversions)
	ids, ok := s.campaigns[k]
	if !ok {
		ids = make(map[string]struct{})
		s.campaigns[k] = ids
	}
	id := m.Platform + "|" + m.CampaignID
	if _, dup := ids[id]; !dup {
		ids[id] = struct{}{}
		b.Campaigns++
	}
}

func (s *MemoryStore) AddSession(k models.BucketKey, end time.Time, m models.SessionMetric) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bucket(k, end)
	sessions := max0(m.Sessions)
	b.Sessions += sessions
	b.PageViews += max0(m.PageViews)
	b.EngagementSeconds += maxf(m.AvgSessionSeconds) * float64(sessions)
	b.BouncedSessions += maxf(m.BounceRate) / 100 * float64(sessions)
	b.Expansions += max0(m.Expansions)
}

// All devuelve copias ordenadas por ventana y canal.
func (s *MemoryStore) All() []models.AggregateBucket {
	return s.Query(time.Time{}, time.Time{}, nil)
}

// Query filtra por inicio de ventana en [from, to]; límites en cero son abiertos.
func (s *MemoryStore) Query(from, to time.Time, f func(models.AggregateBucket) bool) []models.AggregateBucket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AggregateBucket, 0, len(s.agg))
	for _, v := range s.agg {
		if !from.IsZero() && v.WindowStart.Before(from) {
			continue
		}
		if !to.IsZero() && v.WindowStart.After(to) {
			continue
		}
		b := *v
		b.Tiers = maps.Clone(v.Tiers)
		if f == nil || f(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WindowStart.Equal(out[j].WindowStart) {
			return out[i].WindowStart.Before(out[j].WindowStart)
		}
		return channelIndex(out[i].Channel) < channelIndex(out[j].Channel)
	})
	return out
}

func channelIndex(c models.Channel) int {
	for i, ch := range models.Channels {
		if ch == c {
			return i
		}
	}
	return len(models.Channels)
}

func max0(i int64) int64 {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
