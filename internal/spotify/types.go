package spotify

// Image is one entry of an images array. Spotify may return an empty array.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height,omitempty"`
	Width  int    `json:"width,omitempty"`
}

type SimpleArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

type Album struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	AlbumType   string  `json:"album_type"`
	ReleaseDate string  `json:"release_date"`
	Images      []Image `json:"images"`
}

type Track struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URI          string            `json:"uri"`
	Popularity   int               `json:"popularity"`
	DurationMS   int               `json:"duration_ms"`
	Explicit     bool              `json:"explicit"`
	PreviewURL   string            `json:"preview_url"`
	Album        Album             `json:"album"`
	Artists      []SimpleArtist    `json:"artists"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// TrackPage is one page of a track search.
type TrackPage struct {
	Items  []Track `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type Followers struct {
	Total int `json:"total"`
}

type Artist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	URI          string            `json:"uri"`
	Genres       []string          `json:"genres"`
	Popularity   int               `json:"popularity"`
	Followers    Followers         `json:"followers"`
	Images       []Image           `json:"images"`
	ExternalURLs map[string]string `json:"external_urls"`
}

// User is the current user's id and first profile image URL ("" if none).
type User struct {
	ID       string
	ImageURL string
}

type Playlist struct {
	ID          string `json:"id"`
	URI         string `json:"uri"`
	ExternalURL string `json:"external_url"`
}

// SearchQuery selects tracks by artist. Hipster restricts to the lowest-popularity albums.
type SearchQuery struct {
	Artist  string
	Hipster bool
	Limit   int
	Offset  int
}

// Query returns the Spotify search expression, e.g. "artist:Radiohead tag:hipster".
func (q SearchQuery) Query() string {
	s := "artist:" + q.Artist
	if q.Hipster {
		s += " tag:hipster"
	}
	return s
}

func firstImage(images []Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
