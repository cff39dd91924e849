package music

import (
	"context"
	"strings"

	"github.com/sopatech/hiddengems/internal/spotify"
)

const (
	searchPageSize = spotify.MaxSearchLimit
	// Spotify's search endpoint refuses offsets past 1000.
	maxSearchOffset  = 1000
	compilationAlbum = "compilation"
)

type Service interface {
	// HiddenGems returns up to limit of the artist's tracks, skipping compilation albums.
	HiddenGems(ctx context.Context, token, artist string, limit int, hipster bool) ([]spotify.Track, error)
}

type service struct {
	client spotify.Client
}

func NewService(client spotify.Client) Service {
	return &service{client: client}
}

func (s *service) HiddenGems(ctx context.Context, token, artist string, limit int, hipster bool) ([]spotify.Track, error) {
	result := []spotify.Track{}
	artist = strings.TrimSpace(artist)
	if limit <= 0 || artist == "" {
		return result, nil
	}

	for offset := 0; len(result) < limit && offset < maxSearchOffset; offset += searchPageSize {
		page, err := s.client.SearchTracks(ctx, token, spotify.SearchQuery{
			Artist:  artist,
			Hipster: hipster,
			Limit:   searchPageSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		for _, tr := range page.Items {
			if tr.Album.AlbumType != compilationAlbum {
				result = append(result, tr)
			}
		}
	}

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
