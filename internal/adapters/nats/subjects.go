package natsadapter

import (
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectSurfaceAnalyzed = "ridekit.surface.analyzed"
	SubjectPOISearched     = "ridekit.poi.searched"
	subjectRoundTripPrefix = "ridekit.roundtrip."
)

// SubjectRoundTripAttempt is where progress of one round trip is published.
func SubjectRoundTripAttempt(id string) string { return subjectRoundTripPrefix + id + ".attempt" }

// SubjectRoundTripOutcome is where the final status of one round trip is published.
func SubjectRoundTripOutcome(id string) string { return subjectRoundTripPrefix + id + ".outcome" }

// SubjectRoundTrip matches every event of one round trip, or of all of them when id is empty.
func SubjectRoundTrip(id string) string {
	if id == "" {
		return subjectRoundTripPrefix + ">"
	}
	return subjectRoundTripPrefix + id + ".>"
}

// attemptMsgID and outcomeMsgID let JetStream drop duplicates published by
// retried activities inside the stream's duplicate window.
func attemptMsgID(id string, attempt int) string { return id + "/attempt/" + strconv.Itoa(attempt) }

func outcomeMsgID(id string) string { return id + "/outcome" }

// Streams returns the JetStream streams the publisher maintains. Analysis
// events are kept for a day for offline consumers; round-trip events only
// while someone is interested.
func Streams() []nats.StreamConfig {
	return []nats.StreamConfig{
		{
			Name:       "RIDEKIT_ANALYSIS",
			Subjects:   []string{"ridekit.surface.>", "ridekit.poi.>"},
			Retention:  nats.LimitsPolicy,
			MaxAge:     24 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: time.Minute,
		},
		{
			Name:       "RIDEKIT_ROUNDTRIPS",
			Subjects:   []string{subjectRoundTripPrefix + ">"},
			Retention:  nats.InterestPolicy,
			MaxAge:     6 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: 10 * time.Minute,
		},
	}
}

func ensureStreams(js nats.JetStreamManager) error {
	for _, cfg := range Streams() {
		if _, err := js.StreamInfo(cfg.Name); err == nil {
			if _, err := js.UpdateStream(&cfg); err != nil {
				return err
			}
			continue
		}
		if _, err := js.AddStream(&cfg); err != nil {
			return err
		}
	}
	return nil
}
