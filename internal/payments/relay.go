package payments

import (
	"errors"
	"sync"

	"github.com/oklog/ulid/v2"
)

// ErrUnknownAttempt indicates a callback for an attempt the relay is not
// tracking, e.g. one already resolved or abandoned.
var ErrUnknownAttempt = errors.New("payments: unknown payment attempt")

// Attempt is a pending popup the browser still needs to complete. The UI
// polls or receives it, runs the real Yoco SDK client-side, and posts the
// result back.
type Attempt struct {
	ID            string `json:"id"`
	AmountInCents int64  `json:"amount_in_cents"`
	Currency      string `json:"currency"`
	Name          string `json:"name"`
	Description   string `json:"description"`
}

// Relay implements Widget for the server-side checkout flow: ShowPopup parks
// the request until the browser reports the widget's outcome via Resolve.
type Relay struct {
	mu      sync.Mutex
	pending map[string]PopupRequest
	order   []string
}

// NewRelay constructs an empty relay.
func NewRelay() *Relay {
	return &Relay{pending: make(map[string]PopupRequest)}
}

// ShowPopup registers the popup request and waits for Resolve. It never calls
// the callback itself.
func (r *Relay) ShowPopup(req PopupRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := ulid.Make().String()
	r.pending[id] = req
	r.order = append(r.order, id)
}

// Next returns the oldest attempt awaiting the browser, if any.
func (r *Relay) Next() (Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		req, ok := r.pending[id]
		if !ok {
			continue
		}
		return Attempt{
			ID:            id,
			AmountInCents: req.AmountInCents,
			Currency:      req.Currency,
			Name:          req.Name,
			Description:   req.Description,
		}, true
	}
	return Attempt{}, false
}

// Resolve delivers the widget outcome for the attempt and invokes its
// callback exactly once. Resolving an unknown attempt is an error so a stray
// duplicate callback cannot re-trigger the flow.
func (r *Relay) Resolve(attemptID string, res Result) error {
	r.mu.Lock()
	req, ok := r.pending[attemptID]
	if ok {
		delete(r.pending, attemptID)
		r.dropID(attemptID)
	}
	r.mu.Unlock()
	if !ok {
		return ErrUnknownAttempt
	}
	if req.Callback != nil {
		req.Callback(res)
	}
	return nil
}

// Abandon drops a pending attempt without invoking its callback, used when
// the checkout view closes while the popup is open.
func (r *Relay) Abandon(attemptID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, attemptID)
	r.dropID(attemptID)
}

// dropID removes the attempt from the ordering index so finished attempts do
// not accumulate over the process lifetime. Callers hold the lock.
func (r *Relay) dropID(attemptID string) {
	for i, id := range r.order {
		if id == attemptID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}
