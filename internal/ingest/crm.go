package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

// ContactAttributes: las claves desconocidas van a Extra.
type ContactAttributes struct {
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	FormSource  string
	Channel     string
	Status      string
	Score       *float64
	Phone       string
	Email       string
	Extra       map[string]string
}

func (a *ContactAttributes) UnmarshalJSON(b []byte) error {
	var bag map[string]json.RawMessage
	if err := json.Unmarshal(b, &bag); err != nil {
		// bolsa malformada: se ignora, el contacto sigue siendo válido
		return nil
	}
	for k, raw := range bag {
		var v str
		_ = v.UnmarshalJSON(raw)
		switch strings.ToUpper(strings.TrimSpace(k)) {
		case "UTM_SOURCE":
			a.UTMSource = v.String()
		case "UTM_MEDIUM":
			a.UTMMedium = v.String()
		case "UTM_CAMPAIGN":
			a.UTMCampaign = v.String()
		case "FORM_SOURCE", "FORMSOURCE":
			a.FormSource = v.String()
		case "CHANNEL", "LEAD_SOURCE", "SOURCE":
			if a.Channel == "" {
				a.Channel = v.String()
			}
		case "LEAD_STATUS", "STATUS", "QUALIFICATION_STATUS":
			if a.Status == "" {
				a.Status = v.String()
			}
		case "LEAD_SCORE", "QUALIFICATION_SCORE", "SCORE":
			if f, err := strconv.ParseFloat(v.String(), 64); err == nil && a.Score == nil {
				a.Score = &f
			}
		case "SMS", "PHONE", "WHATSAPP":
			if a.Phone == "" {
				a.Phone = v.String()
			}
		case "EMAIL":
			a.Email = v.String()
		default:
			if a.Extra == nil {
				a.Extra = make(map[string]string)
			}
			a.Extra[k] = v.String()
		}
	}
	return nil
}

type crmContact struct {
	ID         str               `json:"id"`
	Email      str               `json:"email"`
	CreatedAt  str               `json:"createdAt"`
	Attributes ContactAttributes `json:"attributes"`
}

type crmContactsResp struct {
	Contacts []crmContact `json:"contacts"`
	Count    num          `json:"count"`
}

type crmDeal struct {
	ID         str `json:"id"`
	Attributes struct {
		Stage str `json:"deal_stage"`
	} `json:"attributes"`
	LinkedContacts []str `json:"linkedContactsIds"`
}

type crmDealsResp struct {
	Items []crmDeal `json:"items"`
}

type CRMAdapter struct {
	BaseURL string
	APIKey  string
	// id de etapa -> lead|application|enrolled|lost
	StageLabels map[string]string
	opts        Options
}

func NewCRMAdapter(baseURL, apiKey string, stageLabels map[string]string, opts Options) *CRMAdapter {
	return &CRMAdapter{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		StageLabels: stageLabels,
		opts:        opts.withDefaults(),
	}
}

func (a *CRMAdapter) Name() string { return "crm" }

func (a *CRMAdapter) headers() map[string]string {
	return map[string]string{"api-key": a.APIKey}
}

func (a *CRMAdapter) Fetch(ctx context.Context, w Window) (Batch, error) {
	var b Batch
	contacts, pages, err := collect(ctx, a.opts.Pager, a.opts.Logger, a.opts.Observer, a.Name(),
		func(ctx context.Context, req pageReq) (page[crmContact], error) {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(req.Limit))
			q.Set("offset", strconv.Itoa(req.Offset))
			q.Set("sort", "asc")
			var resp crmContactsResp
			err := getJSONWithRetry(ctx, a.opts.Client, *a.opts.Retry,
				request{url: a.BaseURL + "/contacts?" + q.Encode(), headers: a.headers()}, &resp)
			return page[crmContact]{Items: resp.Contacts}, err
		},
		func(c crmContact) string { return c.ID.String() })
	b.pages += pages

	for _, c := range contacts {
		lead := a.toLead(c)
		if !w.Contains(lead.CreatedAt) {
			continue
		}
		b.Leads = append(b.Leads, lead)
	}
	a.opts.Observer.RecordsFetched(a.Name(), len(b.Leads))
	if err != nil {
		return b, err
	}

	deals, pages, err := collect(ctx, a.opts.Pager, a.opts.Logger, a.opts.Observer, a.Name()+"_deals",
		func(ctx context.Context, req pageReq) (page[crmDeal], error) {
			q := url.Values{}
			q.Set("limit", strconv.Itoa(req.Limit))
			q.Set("offset", strconv.Itoa(req.Offset))
			var resp crmDealsResp
			err := getJSONWithRetry(ctx, a.opts.Client, *a.opts.Retry,
				request{url: a.BaseURL + "/crm/deals?" + q.Encode(), headers: a.headers()}, &resp)
			return page[crmDeal]{Items: resp.Items}, err
		},
		func(d crmDeal) string { return d.ID.String() })
	b.pages += pages
	a.linkDeals(b.Leads, deals)
	if err != nil {
		return b, fmt.Errorf("deals: %w", err)
	}
	return b, nil
}

func (a *CRMAdapter) toLead(c crmContact) models.RawLead {
	at := c.Attributes
	email := strings.ToLower(strings.TrimSpace(c.Email.String()))
	if email == "" {
		email = strings.ToLower(at.Email)
	}
	return models.RawLead{
		ID:        c.ID.String(),
		Source:    a.Name(),
		CreatedAt: parseTime(c.CreatedAt.String()),
		UTM: models.UTM{
			Source:     at.UTMSource,
			Medium:     at.UTMMedium,
			Campaign:   at.UTMCampaign,
			Channel:    at.Channel,
			FormSource: at.FormSource,
		},
		Status: at.Status,
		Score:  at.Score,
		Email:  email,
		Phone:  at.Phone,
		Extra:  at.Extra,
	}
}

// linkDeals asocia a cada lead los ids de sus deals y la etiqueta de etapa.
func (a *CRMAdapter) linkDeals(leads []models.RawLead, deals []crmDeal) {
	idx := make(map[string]int, len(leads))
	for i, l := range leads {
		idx[l.ID] = i
	}
	for _, d := range deals {
		label := a.StageLabels[d.Attributes.Stage.String()]
		for _, cid := range d.LinkedContacts {
			i, ok := idx[cid.String()]
			if !ok {
				continue
			}
			leads[i].DealIDs = append(leads[i].DealIDs, d.ID.String())
			if label != "" {
				leads[i].DealStages = append(leads[i].DealStages, label)
			}
		}
	}
	for i := range leads {
		sort.Strings(leads[i].DealIDs)
	}
}
