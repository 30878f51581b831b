package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linhozo/UnimelbS2-Pacman/internal/bot"
	"github.com/linhozo/UnimelbS2-Pacman/internal/model"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Inspect or reset stored weight tables",
}

var weightsShowCmd = &cobra.Command{
	Use:   "show AGENT",
	Short: "Print an agent's stored weight tables as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeightsShow,
}

var weightsResetCmd = &cobra.Command{
	Use:   "reset AGENT",
	Short: "Delete an agent's stored weight tables",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeightsReset,
}

func init() {
	for _, c := range []*cobra.Command{weightsShowCmd, weightsResetCmd} {
		c.Flags().String("role", "", "Only this role (offense or defense)")
		weightsCmd.AddCommand(c)
	}
	weightsShowCmd.Flags().Bool("defaults", false, "Show the built-in prior when nothing is stored")
}

// rolesFlag returns the roles selected by --role.
func rolesFlag(cmd *cobra.Command) ([]bot.Role, error) {
	s, _ := cmd.Flags().GetString("role")
	if s == "" {
		return []bot.Role{bot.RoleOffense, bot.RoleDefense}, nil
	}
	r, ok := bot.ParseRole(s)
	if !ok {
		return nil, fmt.Errorf("unknown role %q", s)
	}
	return []bot.Role{r}, nil
}

func runWeightsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	roles, err := rolesFlag(cmd)
	if err != nil {
		return err
	}
	defaults, _ := cmd.Flags().GetBool("defaults")
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.weights == nil && !defaults {
		return errors.New("no weight store configured (set --weight-store)")
	}

	var tables []*model.WeightTable
	for _, r := range roles {
		var t *model.WeightTable
		if st.weights != nil {
			if t, err = st.weights.LoadWeights(ctx, args[0], r.String()); err != nil {
				return err
			}
		}
		if t == nil && defaults {
			t = &model.WeightTable{Agent: args[0], Role: r.String(), Weights: bot.DefaultWeights(r)}
		}
		if t != nil {
			tables = append(tables, t)
		}
	}
	if len(tables) == 0 {
		return fmt.Errorf("no weights stored for %s", args[0])
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(tables)
}

func runWeightsReset(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	roles, err := rolesFlag(cmd)
	if err != nil {
		return err
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	if st.weights == nil {
		return errors.New("no weight store configured (set --weight-store)")
	}
	for _, r := range roles {
		if err := st.weights.DeleteWeights(ctx, args[0], r.String()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reset %s/%s\n", args[0], r)
	}
	return nil
}
