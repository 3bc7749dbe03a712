//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/audit/publishers/kafka"
	"agora/pkg/testutil/containers"
)

func TestPublisher_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	redpanda := containers.NewRedpandaContainer(t)
	topic := "agora.audit.test"

	admin, err := kgo.NewClient(kgo.SeedBrokers(redpanda.Broker))
	require.NoError(t, err)
	defer admin.Close()

	_, err = kadm.NewClient(admin).CreateTopic(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	pub, err := kafka.NewPublisher([]string{redpanda.Broker}, kafka.WithTopic(topic))
	require.NoError(t, err)
	defer pub.Close()

	anonID := uuid.NewString()
	want := audit.Event{
		Category:    audit.CategorySecurity,
		Timestamp:   time.Now().UTC().Truncate(time.Millisecond),
		AnonymousID: anonID,
		Action:      string(audit.EventVerificationFailed),
		Reason:      "invalid signature",
	}
	require.NoError(t, pub.Emit(ctx, want))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, anonID, string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, want.Action, got.Action)
	assert.Equal(t, want.Reason, got.Reason)
	assert.Equal(t, want.Category, got.Category)
}
