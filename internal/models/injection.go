package models

import (
	"fmt"
	"strings"
)

// Site is an anatomical injection site. The zero value is not a site, so a
// request that omits one fails validation.
type Site int

const (
	SiteAbdomenLeft Site = iota + 1
	SiteAbdomenRight
	SiteThighLeft
	SiteThighRight
	SiteArmLeft
	SiteArmRight
)

// AllSites lists the sites in rotation order.
var AllSites = []Site{
	SiteAbdomenLeft,
	SiteAbdomenRight,
	SiteThighLeft,
	SiteThighRight,
	SiteArmLeft,
	SiteArmRight,
}

func (s Site) String() string {
	switch s {
	case SiteAbdomenLeft:
		return "ABDOMEN_LEFT"
	case SiteAbdomenRight:
		return "ABDOMEN_RIGHT"
	case SiteThighLeft:
		return "THIGH_LEFT"
	case SiteThighRight:
		return "THIGH_RIGHT"
	case SiteArmLeft:
		return "ARM_LEFT"
	case SiteArmRight:
		return "ARM_RIGHT"
	default:
		return fmt.Sprintf("SITE(%d)", int(s))
	}
}

// Label is the human-readable site name.
func (s Site) Label() string {
	switch s {
	case SiteAbdomenLeft:
		return "Abdomen (left)"
	case SiteAbdomenRight:
		return "Abdomen (right)"
	case SiteThighLeft:
		return "Thigh (left)"
	case SiteThighRight:
		return "Thigh (right)"
	case SiteArmLeft:
		return "Upper arm (left)"
	case SiteArmRight:
		return "Upper arm (right)"
	default:
		return s.String()
	}
}

func (s Site) Valid() bool {
	return s >= SiteAbdomenLeft && s <= SiteArmRight
}

// ParseSite accepts the wire form (ABDOMEN_LEFT) case-insensitively, with
// dashes or spaces in place of underscores.
func ParseSite(v string) (Site, error) {
	norm := strings.ToUpper(strings.TrimSpace(v))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	for _, s := range AllSites {
		if s.String() == norm {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown injection site %q", v)
}

func (s Site) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid injection site %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Site) UnmarshalText(text []byte) error {
	parsed, err := ParseSite(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Injection is a logged medication injection. Immutable once written.
// A provisional record created by an optimistic write has ClientID set and
// ID empty until the server-assigned ID replaces it.
type Injection struct {
	ID           string    `json:"id"`
	ClientID     string    `json:"clientId,omitempty"`
	Date         LocalDate `json:"date"`
	Site         Site      `json:"site"`
	DoseNumber   int       `json:"doseNumber"`
	DosageMg     *float64  `json:"dosageMg"`
	Notes        *string   `json:"notes"`
	IsGoldenDose bool      `json:"isGoldenDose,omitempty"`
}

func (i Injection) Provisional() bool {
	return i.ID == "" && i.ClientID != ""
}

// StatusKind is the injection due-state.
type StatusKind string

const (
	StatusDue      StatusKind = "due"
	StatusUpcoming StatusKind = "upcoming"
	StatusOverdue  StatusKind = "overdue"
	StatusDone     StatusKind = "done"
)

// InjectionStatus is derived from the most recent injection; never stored.
type InjectionStatus struct {
	Status              StatusKind `json:"status"`
	DaysUntil           int        `json:"daysUntil"`
	DaysOverdue         int        `json:"daysOverdue"`
	SuggestedSite       Site       `json:"suggestedSite"`
	NextDose            int        `json:"nextDose"`
	DosesRemaining      int        `json:"dosesRemaining"`
	LastInjection       *Injection `json:"lastInjection,omitempty"`
	GoldenDoseAvailable bool       `json:"goldenDoseAvailable,omitempty"`
}
