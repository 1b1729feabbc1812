package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"poll-simulator/internal/app"
	"poll-simulator/internal/config"
	"poll-simulator/internal/domain"
	"poll-simulator/internal/infra/memory"
	"poll-simulator/internal/report"
)

// NewSimulateCmd runs a number of voting rounds and prints the statistics after each one.
func NewSimulateCmd(configPath *string) *cobra.Command {
	var (
		bank         string
		participants int
		rounds       int
		seed         int64
		selection    string
		idFormat     string
		noColor      bool
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run voting rounds and print the tallies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(*configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("bank") {
				cfg.Simulation.Bank = bank
			}
			if flags.Changed("participants") {
				cfg.Simulation.Participants = participants
			}
			if flags.Changed("rounds") {
				cfg.Simulation.Rounds = rounds
			}
			if flags.Changed("seed") {
				cfg.Simulation.Seed = seed
			}
			if flags.Changed("selection") {
				cfg.Simulation.Selection = selection
			}
			if flags.Changed("id-format") {
				cfg.Simulation.IDFormat = idFormat
			}
			return runSimulation(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), report.Options{NoColor: noColor})
		},
	}

	cmd.Flags().StringVar(&bank, "bank", "", "question bank id")
	cmd.Flags().IntVar(&participants, "participants", 0, "number of participants")
	cmd.Flags().IntVar(&rounds, "rounds", 0, "number of voting rounds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")
	cmd.Flags().StringVar(&selection, "selection", "", "multiple-selection mode: independent or parity")
	cmd.Flags().StringVar(&idFormat, "id-format", "", "participant id format: uuid or short")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
	return cmd
}

func runSimulation(ctx context.Context, cfg config.Config, out, errOut io.Writer, opts report.Options) error {
	if cfg.Simulation.Rounds <= 0 {
		return fmt.Errorf("rounds must be positive, got %d: %w", cfg.Simulation.Rounds, domain.ErrInvalidConfiguration)
	}
	logger := newLogger(cfg, errOut)

	b, err := openBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	simOpts, err := simulationOptions(cfg, logger)
	if err != nil {
		return err
	}
	service := app.NewSimulationService(memory.NewSessionStore(), bankRepository(cfg, b, logger), simOpts)

	info, err := service.Start(ctx, cfg.Simulation.Bank, cfg.Simulation.Participants)
	if err != nil {
		return err
	}
	defer service.Close(ctx, info.ID)

	for round := 1; round <= cfg.Simulation.Rounds; round++ {
		if round > 1 {
			fmt.Fprintln(out, report.Separator(opts))
		}
		stats, err := service.Vote(ctx, info.ID)
		if err != nil {
			return err
		}
		if err := report.Render(out, stats, opts); err != nil {
			return err
		}
	}
	return nil
}
