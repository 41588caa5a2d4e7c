// Package plan holds the subscription tiers and the feature limits they unlock.
package plan

import (
	"errors"
	"strings"
	"time"
)

type Tier string

const (
	Free         Tier = "free"
	Professional Tier = "professional"
	Enterprise   Tier = "enterprise"
)

var (
	ErrUnknownTier  = errors.New("unknown plan")
	ErrLimitReached = errors.New("plan limit reached")
	ErrNotIncluded  = errors.New("feature not included in plan")
)

// Limits are per tenant; zero counts mean unlimited.
type Limits struct {
	MaxProducts       int  `json:"max_products"`
	MaxRecipes        int  `json:"max_recipes"`
	SpreadsheetImport bool `json:"spreadsheet_import"`
	PDFExport         bool `json:"pdf_export"`
	Backup            bool `json:"backup"`
}

var catalog = map[Tier]Limits{
	Free:         {MaxProducts: 30, MaxRecipes: 10},
	Professional: {MaxProducts: 500, MaxRecipes: 200, SpreadsheetImport: true, PDFExport: true, Backup: true},
	Enterprise:   {SpreadsheetImport: true, PDFExport: true, Backup: true},
}

func Parse(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[t]; !ok {
		return "", ErrUnknownTier
	}
	return t, nil
}

func (t Tier) Limits() Limits { return catalog[t] }

func (t Tier) Paid() bool { return t == Professional || t == Enterprise }

// Effective downgrades a manually granted plan once its expiry has passed.
func Effective(t Tier, expiresAt *time.Time, now time.Time) Tier {
	if _, ok := catalog[t]; !ok {
		return Free
	}
	if expiresAt != nil && !expiresAt.After(now) {
		return Free
	}
	return t
}

// Allow reports whether one more item fits under max given the current count.
func Allow(max, current int) bool {
	return max == 0 || current < max
}
