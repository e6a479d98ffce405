package redistransport

import (
	"testing"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	out := bus.OutboundMessage{
		Topic:   "orders",
		Key:     []byte("order-1"),
		Payload: []byte(`{"ok":true}`),
		Headers: map[string]string{"correlation_id": "abc"},
	}

	encoded, err := encodeEnvelope(out)
	require.NoError(t, err)

	in, err := decodeEnvelope("orders", encoded)
	require.NoError(t, err)

	assert.Equal(t, "orders", in.Topic)
	assert.Equal(t, out.Key, in.Key)
	assert.Equal(t, out.Payload, in.Payload)
	assert.Equal(t, out.Headers, in.Headers)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := decodeEnvelope("orders", "not json")
	require.Error(t, err)
}
