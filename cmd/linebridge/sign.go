package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/manachat72/line-ai-chatbot/internal/line"
)

// newSignCmd prints the signature header value for a webhook body, for
// replaying captured deliveries with curl.
func newSignCmd() *cobra.Command {
	var secret, file string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the X-Line-Signature value for a request body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("LINE_CHANNEL_SECRET")
			}
			if secret == "" {
				return errors.New("channel secret required (--secret or LINE_CHANNEL_SECRET)")
			}

			var (
				body []byte
				err  error
			)
			if file == "" || file == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), line.Sign(secret, body))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "channel secret (defaults to LINE_CHANNEL_SECRET)")
	cmd.Flags().StringVarP(&file, "file", "f", "-", "file holding the exact request body, - for stdin")
	return cmd
}
