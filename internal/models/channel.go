package models

import "strings"

// Channel es el canal de atribución de un lead o campaña. Conjunto cerrado.
type Channel string

const (
	GoogleSearch         Channel = "GoogleSearch"
	GooglePerformanceMax Channel = "GooglePerformanceMax"
	GoogleOther          Channel = "GoogleOther"
	MetaFacebook         Channel = "MetaFacebook"
	MetaInstagram        Channel = "MetaInstagram"
	MetaWhatsApp         Channel = "MetaWhatsApp"
	Organic              Channel = "Organic"
	Direct               Channel = "Direct"
	Other                Channel = "Other"
)

// orden del reporte
var Channels = []Channel{
	GoogleSearch, GooglePerformanceMax, GoogleOther,
	MetaFacebook, MetaInstagram, MetaWhatsApp,
	Organic, Direct, Other,
}

func (c Channel) Valid() bool {
	for _, ch := range Channels {
		if ch == c {
			return true
		}
	}
	return false
}

func (c Channel) Paid() bool {
	switch c {
	case GoogleSearch, GooglePerformanceMax, GoogleOther, MetaFacebook, MetaInstagram, MetaWhatsApp:
		return true
	}
	return false
}

// ParseChannel acepta el nombre sin distinguir mayúsculas.
func ParseChannel(s string) (Channel, bool) {
	for _, ch := range Channels {
		if strings.EqualFold(string(ch), strings.TrimSpace(s)) {
			return ch, true
		}
	}
	return "", false
}

type Tier string

const (
	Hot         Tier = "Hot"
	Warm        Tier = "Warm"
	Cold        Tier = "Cold"
	Unqualified Tier = "Unqualified"
)

var Tiers = []Tier{Hot, Warm, Cold, Unqualified}

// Stage es la etapa del embudo de admisión.
type Stage int

const (
	StageLead Stage = iota
	StageApplication
	StageEnrolled
)

func (s Stage) String() string {
	switch s {
	case StageApplication:
		return "application"
	case StageEnrolled:
		return "enrolled"
	}
	return "lead"
}
