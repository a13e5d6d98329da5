package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/wabot/server/auth"
)

func newTokenCmd() *cobra.Command {
	var (
		subject  string
		duration time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin API access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := viper.GetString("secret")
			if secret == "" {
				return errors.New("a secret is required: pass --secret or set WABOT_SECRET")
			}
			token, err := auth.GenerateAccessToken(subject, []byte(secret), duration, time.Now())
			if err != nil {
				return errors.Wrap(err, "failed to generate token")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&duration, "duration", auth.DefaultAccessTokenDuration, "token lifetime")
	return cmd
}
