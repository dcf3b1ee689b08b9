package metrics

import (
	"net/url"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/lead-attribution/internal/models"
	"github.com/AngelCh415/lead-attribution/internal/store"
)

func seeded() *store.MemoryStore {
	st := store.NewMemoryStore()
	d1 := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 8, 8, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{d1, d2} {
		st.AddCampaign(models.BucketKey{Channel: models.GoogleSearch, WindowStart: d}, d.AddDate(0, 0, 7),
			models.CampaignMetric{Platform: "google_ads", CampaignID: "1", Spend: 100.456, Clicks: 10})
		st.AddLead(models.BucketKey{Channel: models.MetaInstagram, WindowStart: d}, d.AddDate(0, 0, 7),
			models.NormalizedLead{Tier: models.Hot})
	}
	return st
}

func TestQueryChannelFilters(t *testing.T) {
	svc := NewService(seeded())

	rows, err := svc.QueryChannel(url.Values{"channel": {"googlesearch"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "GoogleSearch", rows[0].Channel)
	assert.Equal(t, 100.46, rows[0].Spend)
	assert.InDelta(t, 10.0456, rows[0].CPC.Value, 1e-9)
	assert.False(t, rows[0].CPA.Defined)

	rows, err = svc.QueryChannel(url.Values{"from": {"2025-08-05"}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-08-08", rows[0].WindowStart)

	rows, err = svc.QueryChannel(url.Values{"limit": {"1"}, "offset": {"3"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "MetaInstagram", rows[0].Channel)
	assert.Equal(t, 1, rows[0].Hot)
	assert.True(t, rows[0].ConversionCVR.Defined)
}

func TestQueryChannelWithoutStore(t *testing.T) {
	rows, err := NewService(nil).QueryChannel(url.Values{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestSwap(t *testing.T) {
	svc := NewService(nil)
	svc.Swap(seeded())
	rows, _ := svc.QueryChannel(url.Values{})
	assert.Len(t, rows, 4)
}

func TestInstruments(t *testing.T) {
	reg := prometheus.NewRegistry()
	i := NewInstruments(reg)
	i.PageFetched("crm")
	i.PageFetched("crm")
	i.RecordsFetched("crm", 150)
	i.FetchFailed("meta_ads")
	i.ObserveRun("ok", 2*time.Second)
	i.SetChannels(map[models.Channel]models.AggregateBucket{models.Organic: {Leads: 7, Spend: 0}})
	i.SetChannels(map[models.Channel]models.AggregateBucket{models.GoogleSearch: {Leads: 3, Spend: 50}})

	assert.Equal(t, 2.0, testutil.ToFloat64(i.pages.WithLabelValues("crm")))
	assert.Equal(t, 150.0, testutil.ToFloat64(i.records.WithLabelValues("crm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(i.failures.WithLabelValues("meta_ads")))
	assert.Equal(t, 1.0, testutil.ToFloat64(i.runs.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(i.runDuration))
	// la segunda corrida reemplaza los gauges
	assert.Equal(t, 1, testutil.CollectAndCount(i.channelLeads))
	assert.Equal(t, 50.0, testutil.ToFloat64(i.channelSpend.WithLabelValues("GoogleSearch")))

	// sin registry no registra ni falla
	assert.NotPanics(t, func() { NewInstruments(nil).PageFetched("x") })
}
