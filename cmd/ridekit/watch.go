package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	natsadapter "github.com/samirrijal/ridekit/internal/adapters/nats"
	"github.com/samirrijal/ridekit/internal/core/domain"
)

var watchRaw bool

var watchCmd = &cobra.Command{
	Use:   "watch [round-trip-id]",
	Short: "Follow round-trip progress events",
	Long:  "Prints attempt and outcome events from the event bus. With an id it stops after that round trip's outcome; without one it follows every round trip until interrupted.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var id string
		if len(args) == 1 {
			id = args[0]
		}

		nc, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer nc.Close()

		done := make(chan struct{})
		msgs := make(chan *nats.Msg, 64)
		sub, err := nc.ChanSubscribe(natsadapter.SubjectRoundTrip(id), msgs)
		if err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
		defer func() { _ = sub.Unsubscribe() }()

		out := cmd.OutOrStdout()
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-msgs:
					if watchRaw {
						fmt.Fprintln(out, string(msg.Data))
					}
					line, final := describeEvent(msg.Subject, msg.Data)
					if !watchRaw && line != "" {
						fmt.Fprintln(out, line)
					}
					if final && id != "" {
						return
					}
				}
			}
		}()

		<-done
		return nil
	},
}

// describeEvent renders one bus message as a line of text and reports
// whether it is a round trip's final outcome.
func describeEvent(subject string, data []byte) (string, bool) {
	switch {
	case strings.HasSuffix(subject, ".attempt"):
		var e domain.RoundTripAttemptEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return "", false
		}
		if e.Error != "" {
			return fmt.Sprintf("%s attempt %d: %s", e.RoundTripID, e.Attempt, e.Error), false
		}
		return fmt.Sprintf("%s attempt %d: %.2f km of %.2f km (%+.1f%%) score %.3f",
			e.RoundTripID, e.Attempt,
			e.ActualDistanceMeters/1000, e.TargetDistanceMeters/1000,
			e.DistanceErrorRatio*100, e.Score), false

	case strings.HasSuffix(subject, ".outcome"):
		var e domain.RoundTripOutcomeEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return "", false
		}
		if e.Error != "" {
			return fmt.Sprintf("%s %s: %s", e.RoundTripID, e.Status, e.Error), true
		}
		line := fmt.Sprintf("%s %s", e.RoundTripID, e.Status)
		if m := e.Metadata; m != nil {
			line += fmt.Sprintf(": %s %.2f km after %d attempts", m.Shape, m.ActualDistanceMeters/1000, m.Attempts)
		}
		return line, true
	}
	return "", false
}

func init() {
	watchCmd.Flags().BoolVar(&watchRaw, "raw", false, "print the raw JSON events")
	rootCmd.AddCommand(watchCmd)
}
