package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/linhozo/UnimelbS2-Pacman/internal/bot"
	"github.com/linhozo/UnimelbS2-Pacman/internal/config"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Play headless games and learn weights",
	Long: `train plays a series of local games between the red and blue policies.
Learners keep their weights from one game to the next; with a weight store
configured the weights are loaded before the first game and saved after
every game. The first --num-training games explore and learn, the rest
play greedily.`,
	RunE: runTrain,
}

func init() {
	d := config.Default()
	f := trainCmd.Flags()
	f.Int("episodes", d.Episodes, "Number of games to play")
	f.Int("num-training", d.NumTraining, "Leading games played with exploration and learning on")
	f.Float64("epsilon", d.Epsilon, "Exploration probability while training")
	f.Float64("alpha", d.Alpha, "Learning rate while training")
	f.Float64("discount", d.Discount, "Discount factor")
	f.String("red-policy", d.RedPolicy, "Red policy kind (offense, defense, offense-led, defense-led, random)")
	f.String("blue-policy", d.BluePolicy, "Blue policy kind")
	f.String("transitions-path", d.TransitionsPath, "Write every weight update to this parquet file")
	f.String("label", "", "Label stored with every episode")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	layout, err := loadLayout(cfg.Layout)
	if err != nil {
		return err
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	red, blue := teams(layout, cfg, trainingParams(cfg))
	for _, p := range append(append([]bot.Policy{}, red...), blue...) {
		if err := st.wire(ctx, p); err != nil {
			return errors.Join(err, st.Close())
		}
	}

	label, _ := cmd.Flags().GetString("label")
	log.Info().
		Int("episodes", cfg.Episodes).
		Int("num_training", cfg.NumTraining).
		Str("red", cfg.RedPolicy).
		Str("blue", cfg.BluePolicy).
		Str("store", cfg.WeightStore).
		Msg("Starting training")

	sum, trainErr := bot.Train(ctx, bot.TrainConfig{
		Match: bot.MatchConfig{
			Layout:     layout,
			LayoutName: layoutName(cfg.Layout),
			TimeLeft:   cfg.TimeLeft,
			Red:        red,
			Blue:       blue,
		},
		Episodes:    cfg.Episodes,
		NumTraining: cfg.NumTraining,
		Label:       label,
		EpisodeRepo: st.episodes,
	})
	if err := st.Close(); err != nil {
		trainErr = errors.Join(trainErr, err)
	}
	if sum != nil && sum.Episodes > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "episodes=%d red_wins=%d blue_wins=%d ties=%d avg_score=%.2f\n",
			sum.Episodes, sum.RedWins, sum.BlueWins, sum.Ties, float64(sum.TotalScore)/float64(sum.Episodes))
	}
	return trainErr
}
