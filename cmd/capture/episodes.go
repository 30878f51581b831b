package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Inspect recorded games",
}

var episodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent games",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if st.episodes == nil {
			return errors.New("episodes are only recorded with the postgres store")
		}
		eps, err := st.episodes.ListEpisodes(ctx, limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFINISHED\tLAYOUT\tRED\tBLUE\tSCORE\tTURNS\tTRAINING\tLABEL")
		for _, ep := range eps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%t\t%s\n",
				ep.ID, ep.FinishedAt.Format("2006-01-02 15:04:05"), ep.Layout,
				ep.RedPolicy, ep.BluePolicy, ep.Score, ep.Turns, ep.Training, ep.Label)
		}
		return w.Flush()
	},
}

func init() {
	episodesListCmd.Flags().Int("limit", 20, "Maximum number of games")
	episodesCmd.AddCommand(episodesListCmd)
}
