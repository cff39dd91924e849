package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sopatech/hiddengems/internal/auth"
	"github.com/sopatech/hiddengems/internal/config"
	"github.com/sopatech/hiddengems/internal/infra"
	"github.com/sopatech/hiddengems/internal/music"
	"github.com/sopatech/hiddengems/internal/spotify"
)

func songsCmd() *cobra.Command {
	var (
		limit   int
		hipster bool
		token   string
	)
	cmd := &cobra.Command{
		Use:   "songs <artist>",
		Short: "List an artist's hidden gems",
		Long: "Searches the artist's catalogue, skipping compilations. Uses --token, else SPOTIFY_TOKEN,\n" +
			"else an app-only token from the client credentials grant.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadClient()
			if err != nil {
				return oops.In("songs").Wrapf(err, "loading config")
			}
			if token == "" {
				token = cfg.AccessToken
			}
			if token == "" {
				pair, err := auth.NewExchanger(cfg.Provider(""), nil, nil).Exchange(ctx, auth.NoToken(), nil)
				if err != nil {
					return oops.In("songs").Wrapf(err, "client credentials exchange")
				}
				token = pair.AccessToken
			}

			artist := strings.Join(args, " ")
			client := spotify.NewHTTPClient(infra.NewAPIClient(cfg.APIURL, nil), nil)
			tracks, err := music.NewService(client).HiddenGems(ctx, token, artist, limit, hipster)
			if err != nil {
				return oops.In("songs").With("artist", artist).Wrapf(err, "searching tracks")
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "TRACK\tALBUM\tPOPULARITY\tURI")
			for _, t := range tracks {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", t.Name, t.Album.Name, t.Popularity, t.URI)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", music.DefaultSongLimit, "maximum number of tracks")
	cmd.Flags().BoolVar(&hipster, "hipster", false, "restrict to albums in the lowest 10% of popularity")
	cmd.Flags().StringVar(&token, "token", "", "Spotify access token")
	return cmd
}
