package main

import (
	"fmt"
	"time"

	"github.com/martinsuhendra/manta/internal/application"
	"github.com/martinsuhendra/manta/internal/repository"
	"github.com/martinsuhendra/manta/pkg/database"
	"github.com/martinsuhendra/manta/pkg/events"
	"github.com/martinsuhendra/manta/pkg/kafka"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newFreezesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "freezes",
		Short: "Membership freeze maintenance",
	}

	var at string
	completeDue := &cobra.Command{
		Use:   "complete-due",
		Short: "Complete approved freezes whose end date has passed",
		Long: `Completes every approved freeze request whose end date is at or before
the reference time and reactivates the frozen membership.

Examples:
  mantactl freezes complete-due
  mantactl freezes complete-due --at 2026-01-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := referenceTime(at)
			if err != nil {
				return err
			}

			db, err := e.connect()
			if err != nil {
				return err
			}

			var publisher events.Publisher = events.NoopPublisher{}
			if e.cfg.KafkaEnabled {
				producer := kafka.NewProducer(e.cfg.KafkaConfig.Brokers, e.logger)
				defer producer.Close()
				publisher = producer
			}

			service := application.NewFreezeService(
				database.NewGormTransactor(db),
				repository.NewFreezeRequestRepository(db),
				repository.NewMembershipRepository(db),
				publisher,
				e.logger,
			)

			result, err := service.CompleteDueFreezes(cmd.Context(), now)
			if result != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "completed: %d, failed: %d\n", result.Completed, result.Failed)
			}
			if err != nil {
				e.logger.Error("some freezes could not be completed", zap.Error(err))
				return err
			}
			return nil
		},
	}
	completeDue.Flags().StringVar(&at, "at", "", "reference date (YYYY-MM-DD), defaults to now")

	cmd.AddCommand(completeDue)
	return cmd
}

// referenceTime resolves --at. A date means the end of that UTC day.
func referenceTime(at string) (time.Time, error) {
	if at == "" {
		return time.Now().UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at date %q: expected YYYY-MM-DD", at)
	}
	return day.Add(24*time.Hour - time.Nanosecond), nil
}
