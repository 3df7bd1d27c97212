// Package album provides the derived album identity used as the join key
// across favorites, listened records, and comments.
package album

import "strings"

// Key derives the identity key for an (artist, album) pair. The key is the
// lowercased "artist-name" string with every run of characters outside
// [a-z0-9] collapsed into a single '-' and leading/trailing '-' trimmed.
// Equivalent casing and whitespace variants of the same pair always produce
// the same key. The key is not guaranteed globally unique: two distinct real
// albums can collide, and the system treats the key as unique anyway.
func Key(artist, name string) string {
	raw := strings.ToLower(artist + "-" + name)

	var b strings.Builder
	b.Grow(len(raw))

	lastDash := false
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}

	return strings.Trim(b.String(), "-")
}

// ListenedID builds the deterministic store key for a listened record,
// "{userID}-{albumID}". Using a computed key rather than a store-assigned id
// makes repeated inserts for the same (user, album) pair idempotent at the
// key level.
func ListenedID(userID, albumID string) string {
	return userID + "-" + albumID
}
