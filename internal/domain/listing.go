package domain

// RawRecord is one CRM item exactly as decoded from the webhook response.
// Numbers arrive as json.Number; any key may be missing or null.
type RawRecord map[string]any

// NotInformed replaces text fields the CRM left empty.
const NotInformed = "not informed"

// Listing is the normalized CRM record. Photos holds one entry per CRM photo
// in CRM order; an entry is "" when that photo has no machine URL.
type Listing struct {
	ID          *string  `json:"id"`
	Title       *string  `json:"title"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Status      string   `json:"status"`
	Area        any      `json:"area"`
	Address     any      `json:"address"`
	Photos      []string `json:"photos"`
}

// ListingFilter narrows an index page after fetch-all. Empty fields match everything.
type ListingFilter struct {
	Type   string
	Status string
}
