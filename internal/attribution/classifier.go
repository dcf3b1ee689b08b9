// Package attribution resuelve canal, tier y etapa de cada lead.
package attribution

import (
	"strings"

	"github.com/AngelCh415/lead-attribution/internal/models"
)

type keywordRule struct {
	channel  models.Channel
	keywords []string
}

// metaKeywords se evalúa en orden; la primera entrada que coincide gana.
var metaKeywords = []keywordRule{
	{models.MetaFacebook, []string{"facebook", "fb", "meta", "messenger"}},
	{models.MetaInstagram, []string{"instagram", "ig", "insta"}},
	{models.MetaWhatsApp, []string{"whatsapp", "wa"}},
}

var (
	googleSources = []string{"google", "adwords"}
	paidMediums   = []string{"cpc", "paid", "adwords"}
	pmaxMarkers   = []string{"pmax", "p-max", "performance"}
)

// Classify es total: cualquier entrada, incluso el zero value, da un canal.
func Classify(f models.UTM) models.Channel {
	source := norm(f.Source)
	medium := norm(f.Medium)
	campaign := norm(f.Campaign)

	// 1. Google pago
	if containsAny(source, googleSources) && containsAny(medium, paidMediums) {
		switch {
		case containsAny(campaign, pmaxMarkers):
			return models.GooglePerformanceMax
		case strings.Contains(campaign, "search"):
			return models.GoogleSearch
		default:
			return models.GoogleOther
		}
	}

	// 2. Meta por source/channel/form source
	if ch, ok := matchKeywords(source, norm(f.Channel), norm(f.FormSource)); ok {
		return ch
	}

	// 3. Sin UTM: pistas en el nombre de campaña
	if source == "" && medium == "" {
		if ch, ok := matchKeywords(campaign); ok {
			return ch
		}
	}

	// 4. Orgánico
	if medium == "organic" || (source == "google" && medium == "") {
		return models.Organic
	}

	// 5. Directo
	if source == "" || source == "direct" || source == "(direct)" {
		return models.Direct
	}

	return models.Other
}

func matchKeywords(fields ...string) (models.Channel, bool) {
	for _, rule := range metaKeywords {
		for _, f := range fields {
			if f != "" && containsAny(f, rule.keywords) {
				return rule.channel, true
			}
		}
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	if s == "" {
		return false
	}
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
