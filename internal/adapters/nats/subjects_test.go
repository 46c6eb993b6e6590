package natsadapter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	natsadapter "github.com/samirrijal/ridekit/internal/adapters/nats"
)

func TestRoundTripSubjects(t *testing.T) {
	assert.Equal(t, "ridekit.roundtrip.abc.attempt", natsadapter.SubjectRoundTripAttempt("abc"))
	assert.Equal(t, "ridekit.roundtrip.abc.outcome", natsadapter.SubjectRoundTripOutcome("abc"))
	assert.Equal(t, "ridekit.roundtrip.abc.>", natsadapter.SubjectRoundTrip("abc"))
	assert.Equal(t, "ridekit.roundtrip.>", natsadapter.SubjectRoundTrip(""))
	assert.Equal(t, "ridekit.roundtrip.*.outcome", natsadapter.SubjectRoundTripOutcome("*"))
}

func TestStreams_CoverPublishedSubjects(t *testing.T) {
	published := []string{
		natsadapter.SubjectSurfaceAnalyzed,
		natsadapter.SubjectPOISearched,
		natsadapter.SubjectRoundTripAttempt("abc"),
		natsadapter.SubjectRoundTripOutcome("abc"),
	}
	streams := natsadapter.Streams()
	require.Len(t, streams, 2)

	for _, subject := range published {
		owners := 0
		for _, s := range streams {
			for _, filter := range s.Subjects {
				if strings.HasPrefix(subject, strings.TrimSuffix(filter, ">")) {
					owners++
				}
			}
			assert.Positive(t, s.Duplicates, s.Name)
		}
		assert.Equal(t, 1, owners, subject)
	}
}
