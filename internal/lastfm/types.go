package lastfm

// Image is one entry of a Last.fm image list.
type Image struct {
	URL  string `json:"#text"`
	Size string `json:"size"`
}

// ImageList is the size-ordered image array Last.fm attaches to entities.
type ImageList []Image

// Best returns the largest non-empty image URL, falling back to the first
// entry. Returns "" when the list has no usable URL.
func (l ImageList) Best() string {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].URL != "" {
			return l[i].URL
		}
	}
	return ""
}

// Album is a Last.fm album as returned by search and chart methods. The
// Artist field is a plain name there; album.getInfo returns richer data via
// AlbumInfo.
type Album struct {
	Name   string    `json:"name"`
	Artist string    `json:"artist"`
	URL    string    `json:"url"`
	Images ImageList `json:"image"`
}

// Artist is a Last.fm artist as returned by search and chart methods.
type Artist struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Listeners string    `json:"listeners"`
	Images    ImageList `json:"image"`
}

// Tag is a Last.fm genre tag.
type Tag struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Track is one album track from album.getInfo. Duration is omitted because
// the API serializes it inconsistently across methods.
type Track struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// AlbumInfo is the detail payload of album.getInfo.
type AlbumInfo struct {
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	URL       string    `json:"url"`
	Images    ImageList `json:"image"`
	Listeners string    `json:"listeners"`
	PlayCount string    `json:"playcount"`
	Tracks    struct {
		Track []Track `json:"track"`
	} `json:"tracks"`
	Tags struct {
		Tag []Tag `json:"tag"`
	} `json:"tags"`
	Wiki struct {
		Published string `json:"published"`
		Summary   string `json:"summary"`
		Content   string `json:"content"`
	} `json:"wiki"`
}

// ArtistInfo is the detail payload of artist.getinfo.
type ArtistInfo struct {
	Name   string    `json:"name"`
	URL    string    `json:"url"`
	Images ImageList `json:"image"`
	Stats  struct {
		Listeners string `json:"listeners"`
		PlayCount string `json:"playcount"`
	} `json:"stats"`
	Tags struct {
		Tag []Tag `json:"tag"`
	} `json:"tags"`
	Bio struct {
		Published string `json:"published"`
		Summary   string `json:"summary"`
		Content   string `json:"content"`
	} `json:"bio"`
}

// ============================================================================
// Response envelopes
// ============================================================================

type albumSearchResponse struct {
	Results struct {
		AlbumMatches struct {
			Album []Album `json:"album"`
		} `json:"albummatches"`
	} `json:"results"`
}

type artistSearchResponse struct {
	Results struct {
		ArtistMatches struct {
			Artist []Artist `json:"artist"`
		} `json:"artistmatches"`
	} `json:"results"`
}

type topAlbumsResponse struct {
	Albums struct {
		Album []Album `json:"album"`
	} `json:"albums"`
}

type chartTopArtistsResponse struct {
	Artists struct {
		Artist []Artist `json:"artist"`
	} `json:"artists"`
}

type albumInfoResponse struct {
	Album AlbumInfo `json:"album"`
}

type artistInfoResponse struct {
	Artist ArtistInfo `json:"artist"`
}

type artistTopAlbumsResponse struct {
	TopAlbums struct {
		Album []struct {
			Name   string    `json:"name"`
			URL    string    `json:"url"`
			Images ImageList `json:"image"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"album"`
	} `json:"topalbums"`
}

// apiError represents a Last.fm API error response.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}
