package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hrygo/wabot/plugin/ai/registry"
)

func newModelsCmd() *cobra.Command {
	var provider string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Print the model registry with health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProfile()
			if err != nil {
				return err
			}
			st, err := openStore(cmd.Context(), p)
			if err != nil {
				return err
			}
			defer st.Close()

			models, err := registry.New(st).List(cmd.Context(), provider)
			if err != nil {
				return err
			}

			now := time.Now()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tSTATUS\tERRORS\tLAST ERROR")
			for _, m := range models {
				status := "available"
				if !m.IsAvailable(now.Unix()) {
					status = "suspended until " + time.Unix(*m.SuspendedUntil, 0).Format(time.RFC3339)
				}
				lastError := "-"
				if m.LastError != nil {
					lastError = *m.LastError
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", m.Provider, m.Name, status, m.ErrorCount, lastError)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "", "only list models of this provider")
	return cmd
}
