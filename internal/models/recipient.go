package models

// Recipient is one row of the canonical merchant registry. Loaded once per
// run and immutable afterwards. StoreID is an opaque string identifier:
// leading zeros are significant and numeric coercion is forbidden.
type Recipient struct {
	StoreID  string `json:"store_id"`
	Merchant string `json:"merchant"`
	Owner    string `json:"store_owner"`
	Address  string `json:"address"`
	Province string `json:"province"`
	Region   string `json:"region"`
	Email    string `json:"email"`
}

// HasEmail reports whether the recipient can be delivered to.
func (r Recipient) HasEmail() bool {
	return r.Email != ""
}

// Registry is the canonical recipient set keyed by store identifier.
type Registry struct {
	Recipients []Recipient
	byID       map[string]Recipient
}

// NewRegistry builds a registry from recipient rows. Later duplicates of the
// same store identifier are ignored.
func NewRegistry(recipients []Recipient) *Registry {
	byID := make(map[string]Recipient, len(recipients))
	kept := make([]Recipient, 0, len(recipients))
	for _, r := range recipients {
		if _, dup := byID[r.StoreID]; dup {
			continue
		}
		byID[r.StoreID] = r
		kept = append(kept, r)
	}
	return &Registry{Recipients: kept, byID: byID}
}

// Contains reports whether a store identifier is part of the registry.
func (g *Registry) Contains(storeID string) bool {
	_, ok := g.byID[storeID]
	return ok
}

// Get returns the recipient for a store identifier.
func (g *Registry) Get(storeID string) (Recipient, bool) {
	r, ok := g.byID[storeID]
	return r, ok
}

// Len returns the number of distinct recipients.
func (g *Registry) Len() int {
	return len(g.byID)
}
