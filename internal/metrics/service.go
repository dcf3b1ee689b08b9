package metrics

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/store"
)

// Row es un bucket aplanado con sus tasas derivadas.
type Row struct {
	WindowStart    string       `json:"window_start"`
	WindowEnd      string       `json:"window_end,omitempty"`
	Channel        string       `json:"channel"`
	Leads          int          `json:"leads"`
	Applications   int          `json:"applications"`
	Enrollments    int          `json:"enrollments"`
	Hot            int          `json:"hot"`
	Clicks         int64        `json:"clicks"`
	Impressions    int64        `json:"impressions"`
	Spend          float64      `json:"spend"`
	Sessions       int64        `json:"sessions"`
	CPC            models.Ratio `json:"cpc"`
	CPA            models.Ratio `json:"cpa"`
	ApplicationCVR models.Ratio `json:"application_rate"`
	ConversionCVR  models.Ratio `json:"conversion_rate"`
}

type Service struct {
	mu sync.RWMutex
	st *store.MemoryStore
}

func NewService(st *store.MemoryStore) *Service { return &Service{st: st} }

// Swap reemplaza el store al terminar una corrida.
func (s *Service) Swap(st *store.MemoryStore) {
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
}

func (s *Service) store() *store.MemoryStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st
}

// channelFilter devuelve nil si no se pidió filtro. Nombres desconocidos se ignoran.
func channelFilter(raw string) map[models.Channel]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := make(map[models.Channel]bool)
	for _, name := range strings.Split(raw, ",") {
		if ch, ok := models.ParseChannel(name); ok {
			out[ch] = true
		}
	}
	return out
}

func dateParam(v url.Values, key string) time.Time {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(v.Get(key)))
	if err != nil {
		return time.Time{}
	}
	return t
}

// QueryChannel: ?channel=a,b&from=YYYY-MM-DD&to=YYYY-MM-DD&limit&offset
func (s *Service) QueryChannel(v url.Values) ([]Row, error) {
	st := s.store()
	if st == nil {
		return []Row{}, nil
	}
	only := channelFilter(v.Get("channel"))
	buckets := st.Query(dateParam(v, "from"), dateParam(v, "to"), func(b models.AggregateBucket) bool {
		return only == nil || only[b.Channel]
	})
	lo, hi := window(v, len(buckets))
	return toRows(buckets[lo:hi]), nil
}

// window traduce limit/offset a índices válidos sobre n filas. limit<=0 es "todo", tope 1000.
func window(v url.Values, n int) (int, int) {
	limit, err := strconv.Atoi(v.Get("limit"))
	if err != nil {
		limit = maxRows / 10
	}
	if limit <= 0 || limit > maxRows {
		limit = maxRows
	}
	offset, _ := strconv.Atoi(v.Get("offset"))
	offset = min(max(offset, 0), n)
	return offset, min(offset+limit, n)
}

const maxRows = 1000

func toRows(aggs []models.AggregateBucket) []Row {
	rows := make([]Row, 0, len(aggs))
	for _, b := range aggs {
		rows = append(rows, Row{
			WindowStart:    dateOrEmpty(b.WindowStart),
			WindowEnd:      dateOrEmpty(b.WindowEnd),
			Channel:        string(b.Channel),
			Leads:          b.Leads,
			Applications:   b.Applications,
			Enrollments:    b.Enrollments,
			Hot:            b.Tiers[models.Hot],
			Clicks:         b.Clicks,
			Impressions:    b.Impressions,
			Spend:          math.Round(b.Spend*100) / 100,
			Sessions:       b.Sessions,
			CPC:            b.CPC(),
			CPA:            b.CPA(),
			ApplicationCVR: b.ApplicationRate(),
			ConversionCVR:  b.ConversionRate(),
		})
	}
	return rows
}

func dateOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
