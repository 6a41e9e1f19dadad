package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcurrey/dupReport/internal/gmailapi"
)

func newGmailTokenCmd() *cobra.Command {
	var creds gmailapi.Credentials

	cmd := &cobra.Command{
		Use:   "gmail-token",
		Short: "Obtain a Gmail API refresh token for the gmail transports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.ClientID == "" {
				creds.ClientID = os.Getenv("GMAIL_CLIENT_ID")
			}
			if creds.ClientSecret == "" {
				creds.ClientSecret = os.Getenv("GMAIL_CLIENT_SECRET")
			}
			if creds.ClientID == "" || creds.ClientSecret == "" {
				return fmt.Errorf("client id and secret are required (--client-id/--client-secret or GMAIL_CLIENT_ID/GMAIL_CLIENT_SECRET)")
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Go to the following link in your browser: %v\n", gmailapi.AuthURL(creds))
			fmt.Fprintln(out, "\nAfter authorization, you'll be redirected to a URL. Copy the 'code' parameter from that URL.")

			var authCode string
			fmt.Fprint(out, "\nEnter the authorization code: ")
			if _, err := fmt.Fscan(cmd.InOrStdin(), &authCode); err != nil {
				return fmt.Errorf("failed to read authorization code: %w", err)
			}

			tok, err := gmailapi.Exchange(cmd.Context(), creds, authCode)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\nRefresh Token: %s\n", tok.RefreshToken)
			fmt.Fprintln(out, "\nAdd it to dupReport.rc as refreshtoken= in [incoming] and/or [outgoing].")
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.ClientID, "client-id", "", "OAuth2 client id")
	cmd.Flags().StringVar(&creds.ClientSecret, "client-secret", "", "OAuth2 client secret")
	return cmd
}
