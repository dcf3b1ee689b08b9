package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

const namespace = "lead_attribution"

// Instruments implementa ingest.Observer.
type Instruments struct {
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	pages        *prometheus.CounterVec
	records      *prometheus.CounterVec
	failures     *prometheus.CounterVec
	channelLeads *prometheus.GaugeVec
	channelSpend *prometheus.GaugeVec
}

func NewInstruments(reg prometheus.Registerer) *Instruments {
	i := &Instruments{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total", Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds", Help: "Pipeline run duration.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_pages_total", Help: "Pages fetched per source.",
		}, []string{"source"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_records_total", Help: "Records fetched per source.",
		}, []string{"source"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "source_failures_total", Help: "Page fetch failures per source.",
		}, []string{"source"}),
		channelLeads: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channel_leads", Help: "Leads per channel in the last run.",
		}, []string{"channel"}),
		channelSpend: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "channel_spend", Help: "Spend per channel in the last run.",
		}, []string{"channel"}),
	}
	if reg != nil {
		reg.MustRegister(i.runs, i.runDuration, i.pages, i.records, i.failures, i.channelLeads, i.channelSpend)
	}
	return i
}

func (i *Instruments) PageFetched(source string) { i.pages.WithLabelValues(source).Inc() }
func (i *Instruments) RecordsFetched(source string, n int) {
	i.records.WithLabelValues(source).Add(float64(n))
}
func (i *Instruments) FetchFailed(source string) { i.failures.WithLabelValues(source).Inc() }

func (i *Instruments) ObserveRun(status string, d time.Duration) {
	i.runs.WithLabelValues(status).Inc()
	i.runDuration.Observe(d.Seconds())
}

// SetChannels publica los totales por canal de la última corrida.
func (i *Instruments) SetChannels(byChannel map[models.Channel]models.AggregateBucket) {
	i.channelLeads.Reset()
	i.channelSpend.Reset()
	for ch, b := range byChannel {
		i.channelLeads.WithLabelValues(string(ch)).Set(float64(b.Leads))
		i.channelSpend.WithLabelValues(string(ch)).Set(b.Spend)
	}
}
