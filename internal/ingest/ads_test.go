package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

func TestGoogleAdsMicrosAndPageToken(t *testing.T) {
	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer g-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		tok := r.URL.Query().Get("pageToken")
		tokens = append(tokens, tok)
		switch tok {
		case "":
			w.Write([]byte(`{"results":[
				{"campaign":{"id":"11","name":"Fall","advertisingChannelType":"PERFORMANCE_MAX"},
				 "segments":{"date":"2025-08-01"},
				 "metrics":{"costMicros":"250000000","impressions":"1000","clicks":"50","conversions":4}},
				{"campaign":{"id":"12","name":"Brand","advertisingChannelType":"SEARCH"},
				 "segments":{"date":"2025-08-01"},
				 "metrics":{"costMicros":125500000,"impressions":400,"clicks":40,"conversions":"2.5"}}
			],"nextPageToken":"p2"}`))
		default:
			w.Write([]byte(`{"results":[
				{"campaign":{"id":"11","name":"Fall","advertisingChannelType":"PERFORMANCE_MAX"},
				 "segments":{"date":"2025-08-01"},
				 "metrics":{"costMicros":"999","impressions":"1","clicks":"1","conversions":0}}
			]}`))
		}
	}))
	defer srv.Close()

	a := NewGoogleAdsAdapter(srv.URL, "g-token", testOptions(srv, 2))
	b, err := a.Fetch(context.Background(), Window{})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "p2"}, tokens)

	day := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	want := []models.CampaignMetric{
		{
			Platform: "google_ads", CampaignID: "11", CampaignName: "Fall", Date: day,
			UTM:   models.UTM{Source: "google", Medium: "cpc", Campaign: "Fall performance_max"},
			Spend: 250, Impressions: 1000, Clicks: 50, Conversions: 4,
		},
		{
			Platform: "google_ads", CampaignID: "12", CampaignName: "Brand", Date: day,
			UTM:   models.UTM{Source: "google", Medium: "cpc", Campaign: "Brand search"},
			Spend: 125.5, Impressions: 400, Clicks: 40, Conversions: 2.5,
		},
	}
	// la fila repetida de la segunda página se descarta por campaña+día
	if diff := cmp.Diff(want, b.Campaigns); diff != "" {
		t.Fatalf("campaigns mismatch (-want +got):\n%s", diff)
	}
}

func TestMetaAdsCursorAndActions(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cursors = append(cursors, r.URL.Query().Get("after"))
		if r.URL.Query().Get("after") == "" {
			w.Write([]byte(`{"data":[
				{"campaign_id":"m1","campaign_name":"Leads IG","date_start":"2025-08-02","spend":"1500",
				 "impressions":"900","clicks":"30","publisher_platform":"instagram",
				 "actions":[{"action_type":"lead","value":"3"},{"action_type":"link_click","value":"30"}]},
				{"campaign_id":"m2","campaign_name":"WA chat","date_start":"2025-08-02","spend":2000,
				 "impressions":100,"clicks":10,"conversions":"5"}
			],"paging":{"cursors":{"after":"c2"},"next":"https://next"}}`))
			return
		}
		w.Write([]byte(`{"data":[
			{"campaign_id":"m3","campaign_name":"Retarget","date_start":"2025-08-03","spend":"100",
			 "impressions":"10","clicks":"1","publisher_platform":"facebook"}
		],"paging":{"cursors":{"after":"c3"}}}`))
	}))
	defer srv.Close()

	a := NewMetaAdsAdapter(srv.URL, "m-token", testOptions(srv, 2))
	b, err := a.Fetch(context.Background(), Window{})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "c2"}, cursors)
	require.Len(t, b.Campaigns, 3)

	ig := b.Campaigns[0]
	assert.Equal(t, "instagram", ig.UTM.Source)
	assert.Equal(t, 15.0, ig.Spend)
	assert.Equal(t, 3.0, ig.Conversions)

	wa := b.Campaigns[1]
	assert.Equal(t, "facebook", wa.UTM.Source)
	assert.Equal(t, 20.0, wa.Spend)
	assert.Equal(t, 5.0, wa.Conversions)

	assert.Equal(t, 0.0, b.Campaigns[2].Conversions)
}

func TestMetaUnknownPlatformFallsBackToFacebook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"campaign_id":"a1","campaign_name":"Prospecting","date_start":"2025-08-02","spend":"500",
			 "publisher_platform":"audience_network"},
			{"campaign_id":"a2","campaign_name":"Prospecting","date_start":"2025-08-02","spend":"300",
			 "publisher_platform":" Messenger "}
		]}`))
	}))
	defer srv.Close()

	a := NewMetaAdsAdapter(srv.URL, "m-token", testOptions(srv, 10))
	b, err := a.Fetch(context.Background(), Window{})
	require.NoError(t, err)
	require.Len(t, b.Campaigns, 2)
	assert.Equal(t, "facebook", b.Campaigns[0].UTM.Source)
	assert.Equal(t, "messenger", b.Campaigns[1].UTM.Source)
}

func TestAdsWindowFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[
			{"campaign":{"id":"1","name":"Old"},"segments":{"date":"2025-01-01"},"metrics":{"costMicros":1000000}},
			{"campaign":{"id":"2","name":"New"},"segments":{"date":"2025-08-01"},"metrics":{"costMicros":1000000}}
		]}`))
	}))
	defer srv.Close()

	a := NewGoogleAdsAdapter(srv.URL, "t", testOptions(srv, 10))
	b, err := a.Fetch(context.Background(), LastDays(time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC), 30))
	require.NoError(t, err)
	require.Len(t, b.Campaigns, 1)
	assert.Equal(t, "2", b.Campaigns[0].CampaignID)
	assert.Equal(t, 1.0, b.Campaigns[0].Spend)
}
