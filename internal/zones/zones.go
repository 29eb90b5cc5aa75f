package zones

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// minPostalCodeLength is the policy threshold before auto-detection runs; it
// is not a format validation.
const minPostalCodeLength = 4

// Zone is a delivery-fee/minimum-order policy keyed by a raw comma-separated
// postal code list. Zones are read-only reference data owned by the backend.
type Zone struct {
	ID                    int64           `json:"id"`
	Name                  string          `json:"name"`
	PostalCodes           string          `json:"postal_codes"`
	DeliveryFee           decimal.Decimal `json:"delivery_fee"`
	MinimumOrder          decimal.Decimal `json:"minimum_order"`
	EstimatedDeliveryTime string          `json:"estimated_delivery_time,omitempty"`
}

// MatchesPostalCode reports whether the zone's postal code set contains an
// exact trimmed match for the given code.
func (z Zone) MatchesPostalCode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	for _, pc := range strings.Split(z.PostalCodes, ",") {
		if strings.TrimSpace(pc) == code {
			return true
		}
	}
	return false
}

// Resolver auto-selects a delivery zone from the postal code the customer
// types, re-evaluating whenever the code or the zone list changes. A manual
// selection always wins and is never overwritten by a postal-code rerun.
type Resolver struct {
	mu       sync.Mutex
	zones    []Zone
	postal   string
	selected *Zone
	// manual guards the selection against reruns for the postal text that was
	// current when the customer picked a zone; typing a new matching code is a
	// fresh intent and may re-resolve.
	manual       bool
	manualPostal string
}

// NewResolver constructs an empty resolver; zones arrive via SetZones once the
// backend fetch completes.
func NewResolver() *Resolver {
	return &Resolver{}
}

// SetZones replaces the zone list and reruns resolution against the current
// postal code.
func (r *Resolver) SetZones(zones []Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zones = make([]Zone, len(zones))
	copy(r.zones, zones)
	r.resolve()
}

// SetPostalCode records the typed postal code and reruns resolution.
func (r *Resolver) SetPostalCode(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postal = code
	r.resolve()
}

// Select is the explicit zone choice. An unknown id clears nothing and
// reports false.
func (r *Resolver) Select(zoneID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.zones {
		if r.zones[i].ID == zoneID {
			z := r.zones[i]
			r.selected = &z
			r.manual = true
			r.manualPostal = r.postal
			return true
		}
	}
	return false
}

// Selected returns the currently selected zone, if any.
func (r *Resolver) Selected() (Zone, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.selected == nil {
		return Zone{}, false
	}
	return *r.selected, true
}

// PostalCode returns the last postal code text handed to the resolver.
func (r *Resolver) PostalCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.postal
}

// Zones returns a copy of the known zone list.
func (r *Resolver) Zones() []Zone {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Zone, len(r.zones))
	copy(out, r.zones)
	return out
}

// Reset clears the selection and postal code for a fresh checkout session.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postal = ""
	r.selected = nil
	r.manual = false
	r.manualPostal = ""
}

// resolve applies the postal-code match. No match leaves the previous
// selection untouched. Callers hold the lock.
func (r *Resolver) resolve() {
	if r.manual && r.postal == r.manualPostal {
		return
	}
	code := strings.TrimSpace(r.postal)
	if len(code) < minPostalCodeLength {
		return
	}
	for i := range r.zones {
		if r.zones[i].MatchesPostalCode(code) {
			z := r.zones[i]
			r.selected = &z
			r.manual = false
			r.manualPostal = ""
			return
		}
	}
}
