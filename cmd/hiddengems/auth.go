package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/sopatech/hiddengems/internal/auth"
	"github.com/sopatech/hiddengems/internal/config"
	"github.com/sopatech/hiddengems/internal/loopback"
	"github.com/sopatech/hiddengems/internal/session"
)

func loginCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize in the browser and print the token pair",
		Long: "Starts a loopback listener, prints the Spotify authorize URL and waits for the redirect.\n" +
			"The redirect URI (printed) must be registered for the client id.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := config.LoadClient()
			if err != nil {
				return oops.In("login").Wrapf(err, "loading config")
			}

			receiver, err := loopback.Listen(addr)
			if err != nil {
				return oops.In("login").Wrapf(err, "starting loopback listener")
			}
			defer receiver.Close()

			provider := cfg.Provider(receiver.RedirectURI())
			store := session.NewMemory()
			authURL, err := auth.BuildAuthURL(ctx, provider, store)
			if err != nil {
				return oops.In("login").Wrapf(err, "building authorize url")
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Redirect URI: %s\nOpen this URL to authorize:\n\n  %s\n\n", receiver.RedirectURI(), authURL)

			waitCtx := ctx
			if timeout > 0 {
				var cancel func()
				waitCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			redirect, err := receiver.Wait(waitCtx)
			if err != nil {
				return oops.In("login").Wrapf(err, "waiting for redirect")
			}
			slogctx.Debug(ctx, "redirect received")

			code, err := auth.CodeFromRedirect(ctx, store, redirect)
			if err != nil {
				return oops.In("login").Wrapf(err, "validating redirect")
			}
			pair, err := auth.NewExchanger(provider, nil, nil).Exchange(ctx, auth.AuthCode(code), store)
			if err != nil {
				return oops.In("login").Wrapf(err, "exchanging authorization code")
			}
			return printPair(out, pair)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", loopback.DefaultAddr, "loopback listen address for the redirect")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for the redirect (0 waits forever)")
	return cmd
}

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Obtain an app-only access token (client credentials)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return oops.In("token").Wrapf(err, "loading config")
			}
			pair, err := auth.NewExchanger(cfg.Provider(""), nil, nil).Exchange(cmd.Context(), auth.NoToken(), nil)
			if err != nil {
				return oops.In("token").Wrapf(err, "client credentials exchange")
			}
			return printPair(cmd.OutOrStdout(), pair)
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <refresh-token>",
		Short: "Exchange a refresh token for a new access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return oops.In("refresh").Wrapf(err, "loading config")
			}
			pair, err := auth.NewExchanger(cfg.Provider(""), nil, nil).Exchange(cmd.Context(), auth.RefreshToken(args[0]), nil)
			if err != nil {
				return oops.In("refresh").Wrapf(err, "refresh exchange")
			}
			return printPair(cmd.OutOrStdout(), pair)
		},
	}
}

func printPair(w io.Writer, pair auth.TokenPair) error {
	if _, err := fmt.Fprintf(w, "access_token:  %s\n", pair.AccessToken); err != nil {
		return err
	}
	refresh := pair.RefreshToken
	if refresh == "" {
		refresh = "(not issued)"
	}
	_, err := fmt.Fprintf(w, "refresh_token: %s\n", refresh)
	return err
}
