package album

// Ref is the denormalized album snapshot stored alongside favorites and
// listened records so lists can render without a metadata round trip.
type Ref struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Image  string `json:"image,omitempty"`
}

// Key returns the derived identity key for the referenced album.
func (r Ref) Key() string {
	return Key(r.Artist, r.Name)
}
