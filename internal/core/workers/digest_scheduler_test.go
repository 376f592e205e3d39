package workers

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/carbon-footprint-tracker/internal/core/domain"
)

type fakeDigestSender struct {
	runs chan time.Time
}

func (f *fakeDigestSender) SendWeeklyDigests(_ context.Context, asOf time.Time) (domain.DigestReport, error) {
	f.runs <- asOf
	return domain.DigestReport{Sent: 1}, nil
}

func TestDigestScheduler(t *testing.T) {
	logger, _ := test.NewNullLogger()

	t.Run("Fail: invalid schedule", func(t *testing.T) {
		_, err := NewDigestScheduler("every monday please", &fakeDigestSender{}, logger)
		assert.Error(t, err)
	})

	t.Run("Accepts the weekly default", func(t *testing.T) {
		_, err := NewDigestScheduler("0 8 * * MON", &fakeDigestSender{}, logger)
		assert.NoError(t, err)
	})

	t.Run("Runs the digest on schedule", func(t *testing.T) {
		sender := &fakeDigestSender{runs: make(chan time.Time, 4)}
		scheduler, err := NewDigestScheduler("@every 1s", sender, logger)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		scheduler.Start(ctx)

		select {
		case asOf := <-sender.runs:
			assert.Equal(t, time.UTC, asOf.Location())
		case <-time.After(3 * time.Second):
			t.Fatal("digest never ran")
		}

		scheduler.Stop()
	})
}
