package models

// Track is the normalized descriptor returned by the music provider
// clients. The service treats it as opaque data; provider-specific
// lookups happen outside this module.
type Track struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Artist      string `json:"artist"`
	AlbumArt    string `json:"album_art,omitempty"`
	DurationMs  int64  `json:"duration_ms"`
	ProviderURI string `json:"provider_uri,omitempty"`
}
