package cart

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/chiwarira/alpha-lpgas-new/internal/catalog"
)

// ErrStoreUnavailable indicates the store was constructed without its persister.
var ErrStoreUnavailable = errors.New("cart: store unavailable")

// Line is a single cart entry. Lines are unique per product; re-adding an
// existing product increments the quantity instead of appending. Quantity is
// always >= 1 — a line that would drop below that is removed, never stored.
type Line struct {
	Product         catalog.Product  `json:"product"`
	Quantity        int              `json:"quantity"`
	IncludeCylinder bool             `json:"include_cylinder,omitempty"`
	CylinderProduct *catalog.Product `json:"cylinder_product,omitempty"`
}

// LineTotal prices the line including the bundled cylinder when present.
// The result is left unrounded; formatting to 2 places happens at the edge.
func (l Line) LineTotal() decimal.Decimal {
	qty := decimal.NewFromInt(int64(l.Quantity))
	total := l.Product.UnitPrice.Mul(qty)
	if l.IncludeCylinder && l.CylinderProduct != nil {
		total = total.Add(l.CylinderProduct.UnitPrice.Mul(qty))
	}
	return total
}

// Persister stores and restores the full cart contents. The file-backed
// implementation mirrors the durable local storage the browser UI used.
type Persister interface {
	Load() ([]Line, error)
	Save(lines []Line) error
}

// Store holds the in-memory cart and writes it through the persister after
// every mutation. It replaces ambient global cart state with an explicit
// object carrying a load/save lifecycle.
type Store struct {
	mu    sync.Mutex
	repo  Persister
	lines []Line
}

// NewStore constructs a Store over the given persister.
func NewStore(repo Persister) (*Store, error) {
	if repo == nil {
		return nil, ErrStoreUnavailable
	}
	return &Store{repo: repo}, nil
}

// Load restores the persisted cart. Missing or malformed data yields an empty
// cart; startup never fails on a bad cart file.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, err := s.repo.Load()
	if err != nil || lines == nil {
		s.lines = nil
		return
	}
	// Drop lines a corrupt or hand-edited file could smuggle in.
	kept := lines[:0]
	for _, l := range lines {
		if l.Quantity >= 1 && l.Product.ID != 0 {
			kept = append(kept, l)
		}
	}
	s.lines = kept
}

// Add appends the product with quantity 1, or bumps the existing line's
// quantity by 1. The bundle selection always reflects the latest add.
func (s *Store) Add(p catalog.Product, includeCylinder bool, cylinder *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Product.ID == p.ID {
			s.lines[i].Quantity++
			s.lines[i].IncludeCylinder = includeCylinder
			s.lines[i].CylinderProduct = cylinder
			return s.persist()
		}
	}
	s.lines = append(s.lines, Line{
		Product:         p,
		Quantity:        1,
		IncludeCylinder: includeCylinder,
		CylinderProduct: cylinder,
	})
	return s.persist()
}

// Remove deletes the line for the product. Removing an absent product is a
// successful no-op.
func (s *Store) Remove(productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return s.persist()
		}
	}
	return nil
}

// SetQuantity overwrites the quantity for the product's line. Values below 1
// are ignored so the invariant on stored lines holds.
func (s *Store) SetQuantity(productID int64, quantity int) error {
	if quantity < 1 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.lines {
		if s.lines[i].Product.ID == productID {
			s.lines[i].Quantity = quantity
			return s.persist()
		}
	}
	return nil
}

// Clear empties the cart, e.g. after a completed order.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	return s.persist()
}

// Lines returns a copy of the cart in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total sums unit_price * quantity across all lines, including bundled
// cylinders, without intermediate rounding.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

// Count sums quantities across all lines, for the cart badge.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

func (s *Store) persist() error {
	lines := make([]Line, len(s.lines))
	copy(lines, s.lines)
	return s.repo.Save(lines)
}
