package cache

import "strconv"

// Store-backed queries.

// AlbumStatus keys the favorite/listened status of one album for one user.
func AlbumStatus(userID, albumID string) Key {
	return newKey("album_status", userID, albumID)
}

// UserFavorites keys a user's favorites list.
func UserFavorites(userID string) Key {
	return newKey("user_favorites", userID)
}

// UserListened keys a user's listened list.
func UserListened(userID string) Key {
	return newKey("user_listened", userID)
}

// AlbumComments keys an album's comment list.
func AlbumComments(albumID string) Key {
	return newKey("album_comments", albumID)
}

// Metadata API queries.

// AlbumSearch keys an album search page.
func AlbumSearch(query string, page int) Key {
	return newKey("album_search", query, strconv.Itoa(page))
}

// ArtistSearch keys an artist search page.
func ArtistSearch(query string, page int) Key {
	return newKey("artist_search", query, strconv.Itoa(page))
}

// TopAlbums keys a chart-albums page.
func TopAlbums(page int) Key {
	return newKey("top_albums", strconv.Itoa(page))
}

// TopArtists keys a chart-artists page.
func TopArtists(page int) Key {
	return newKey("top_artists", strconv.Itoa(page))
}

// AlbumDetail keys an album detail lookup.
func AlbumDetail(artist, name string) Key {
	return newKey("album_detail", artist, name)
}

// ArtistDetail keys an artist detail lookup.
func ArtistDetail(name string) Key {
	return newKey("artist_detail", name)
}

// ArtistTopAlbums keys an artist's top-albums lookup.
func ArtistTopAlbums(name string) Key {
	return newKey("artist_top_albums", name)
}
