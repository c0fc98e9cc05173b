package notify_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/notify"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	key     []byte
	value   []byte
	headers []kafka.Header
}

func (p *fakePublisher) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	p.key, p.value, p.headers = key, value, headers
	return nil
}

func TestKafkaNotifierPublishesEnvelope(t *testing.T) {
	t.Parallel()

	env, err := notify.NewEnvelope(notify.EventOrderPaid, "order-1", notify.OrderPaidPayload{
		OrderID:    "order-1",
		CustomerID: "cust-1",
		ProductIDs: []string{"site_basic"},
		Total:      "150.00",
		Source:     "webhook",
	})
	require.NoError(t, err)

	pub := &fakePublisher{}
	require.NoError(t, notify.NewKafkaNotifier(pub).Notify(context.Background(), env))

	assert.Equal(t, "order-1", string(pub.key))
	require.Len(t, pub.headers, 2)
	assert.Equal(t, notify.EventOrderPaid, string(pub.headers[0].Value))

	var got notify.Envelope
	require.NoError(t, json.Unmarshal(pub.value, &got))
	assert.Equal(t, env.EventID, got.EventID)
	assert.Equal(t, 1, got.EventVersion)

	var payload notify.OrderPaidPayload
	require.NoError(t, json.Unmarshal(got.Payload, &payload))
	assert.Equal(t, []string{"site_basic"}, payload.ProductIDs)
}
