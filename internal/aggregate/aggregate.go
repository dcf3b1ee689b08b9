// Package aggregate agrupa registros normalizados por (canal, ventana).
package aggregate

import (
	"time"

	"github.com/AngelCh415/lead-attribution/internal/attribution"
	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/store"
)

type Result struct {
	Spec WindowSpec
	// ordenados por ventana y luego canal
	Buckets []models.AggregateBucket
	// ByChannel suma todas las ventanas de cada canal.
	ByChannel map[models.Channel]models.AggregateBucket
	// Latest es la última ventana observada de cada canal.
	Latest map[models.Channel]models.AggregateBucket
	Total  models.AggregateBucket
}

func (r Result) Channels() []models.Channel {
	var out []models.Channel
	for _, ch := range models.Channels {
		if _, ok := r.ByChannel[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}

type Aggregator struct {
	spec  WindowSpec
	store *store.MemoryStore
}

func New(spec WindowSpec, st *store.MemoryStore) *Aggregator {
	if st == nil {
		st = store.NewMemoryStore()
	}
	return &Aggregator{spec: spec, store: st}
}

func (a *Aggregator) key(ch models.Channel, t time.Time) (models.BucketKey, time.Time) {
	start, end := a.spec.Bounds(t)
	return models.BucketKey{Channel: ch, WindowStart: start}, end
}

func (a *Aggregator) AddLeads(leads []models.NormalizedLead) {
	for _, l := range leads {
		if l.ID != "" && !a.store.MarkSeen("lead|"+l.Source+"|"+l.ID) {
			continue
		}
		k, end := a.key(l.Channel, l.CreatedAt)
		a.store.AddLead(k, end, l)
	}
}

func (a *Aggregator) AddCampaigns(metrics []models.CampaignMetric) {
	for _, m := range metrics {
		if m.CampaignID != "" {
			id := "ads|" + m.Platform + "|" + m.CampaignID + "|" + m.Date.Format("2006-01-02") + "|" + m.UTM.Source
			if !a.store.MarkSeen(id) {
				continue
			}
		}
		k, end := a.key(attribution.Classify(m.UTM), m.Date)
		a.store.AddCampaign(k, end, m)
	}
}

func (a *Aggregator) AddSessions(sessions []models.SessionMetric) {
	for _, s := range sessions {
		k, end := a.key(attribution.Classify(s.UTM), s.Date)
		a.store.AddSession(k, end, s)
	}
}

func (a *Aggregator) Result() Result {
	r := Result{
		Spec:      a.spec,
		Buckets:   a.store.All(),
		ByChannel: make(map[models.Channel]models.AggregateBucket),
		Latest:    make(map[models.Channel]models.AggregateBucket),
	}
	for _, b := range r.Buckets {
		agg := r.ByChannel[b.Channel]
		agg.Channel = b.Channel
		agg.Merge(b)
		r.ByChannel[b.Channel] = agg
		r.Total.Merge(b)

		// Buckets viene ordenado por ventana: el último observado gana.
		if prev, ok := r.Latest[b.Channel]; !ok || b.Spend > 0 || prev.Spend == 0 {
			r.Latest[b.Channel] = b
		}
	}
	return r
}

func Aggregate(leads []models.NormalizedLead, metrics []models.CampaignMetric, spec WindowSpec) Result {
	a := New(spec, nil)
	a.AddLeads(leads)
	a.AddCampaigns(metrics)
	return a.Result()
}
