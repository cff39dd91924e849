package music

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sopatech/hiddengems/internal/spotify"
)

// fakeSpotify serves search pages from a fixed catalogue and records the queries it saw.
type fakeSpotify struct {
	spotify.Client
	catalogue []spotify.Track
	queries   []spotify.SearchQuery
	err       error
}

func (f *fakeSpotify) SearchTracks(_ context.Context, token string, q spotify.SearchQuery) (spotify.TrackPage, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return spotify.TrackPage{}, f.err
	}
	if token == "" {
		return spotify.TrackPage{}, spotify.ErrUnauthorized
	}
	end := min(q.Offset+q.Limit, len(f.catalogue))
	if q.Offset >= end {
		return spotify.TrackPage{Offset: q.Offset, Limit: q.Limit, Total: len(f.catalogue)}, nil
	}
	return spotify.TrackPage{Items: f.catalogue[q.Offset:end], Offset: q.Offset, Limit: q.Limit, Total: len(f.catalogue)}, nil
}

// catalogue builds n tracks; every compilationEvery-th one is on a compilation (0 = none).
func catalogue(n, compilationEvery int) []spotify.Track {
	tracks := make([]spotify.Track, n)
	for i := range tracks {
		albumType := "album"
		if compilationEvery > 0 && i%compilationEvery == 0 {
			albumType = "compilation"
		}
		tracks[i] = spotify.Track{ID: fmt.Sprintf("t%d", i), Album: spotify.Album{AlbumType: albumType}}
	}
	return tracks
}

func TestHiddenGems_TruncatesToLimit(t *testing.T) {
	fake := &fakeSpotify{catalogue: catalogue(200, 0)}
	got, err := NewService(fake).HiddenGems(context.Background(), "tok", "Low", 60, false)
	require.NoError(t, err)
	require.Len(t, got, 60)
	require.Equal(t, "t0", got[0].ID)
	require.Equal(t, "t59", got[59].ID)
	require.Len(t, fake.queries, 2)
	require.Equal(t, 0, fake.queries[0].Offset)
	require.Equal(t, 50, fake.queries[1].Offset)
	require.Equal(t, 50, fake.queries[0].Limit)
}

func TestHiddenGems_SkipsCompilations(t *testing.T) {
	fake := &fakeSpotify{catalogue: catalogue(100, 2)}
	got, err := NewService(fake).HiddenGems(context.Background(), "tok", "Low", 30, true)
	require.NoError(t, err)
	require.Len(t, got, 30)
	for _, tr := range got {
		require.NotEqual(t, "compilation", tr.Album.AlbumType)
	}
	require.True(t, fake.queries[0].Hipster)
	require.Equal(t, "Low", fake.queries[0].Artist)
}

func TestHiddenGems_StopsOnEmptyPage(t *testing.T) {
	fake := &fakeSpotify{catalogue: catalogue(70, 0)}
	got, err := NewService(fake).HiddenGems(context.Background(), "tok", "Low", 500, false)
	require.NoError(t, err)
	require.Len(t, got, 70)
	require.Len(t, fake.queries, 3, "two full pages then one empty page")
}

func TestHiddenGems_StopsAtOffsetCeiling(t *testing.T) {
	fake := &fakeSpotify{catalogue: catalogue(2000, 1)} // every track is a compilation
	got, err := NewService(fake).HiddenGems(context.Background(), "tok", "Low", 10, false)
	require.NoError(t, err)
	require.Empty(t, got)
	require.Len(t, fake.queries, 20)
	require.Equal(t, 950, fake.queries[len(fake.queries)-1].Offset)
}

func TestHiddenGems_NonPositiveLimit(t *testing.T) {
	fake := &fakeSpotify{catalogue: catalogue(10, 0)}
	got, err := NewService(fake).HiddenGems(context.Background(), "tok", "Low", 0, false)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
	require.Empty(t, fake.queries)
}

func TestHiddenGems_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&fakeSpotify{err: boom}).HiddenGems(context.Background(), "tok", "Low", 5, false)
	require.ErrorIs(t, err, boom)

	_, err = NewService(&fakeSpotify{catalogue: catalogue(5, 0)}).HiddenGems(context.Background(), "", "Low", 5, false)
	require.ErrorIs(t, err, spotify.ErrUnauthorized)
}
