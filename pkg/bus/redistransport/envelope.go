package redistransport

import (
	"encoding/json"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
)

// wireEnvelope carries a bus.OutboundMessage's key, headers, and payload
// over a single Redis PUBLISH string value; Redis pub/sub has no
// structured-metadata channel of its own.
type wireEnvelope struct {
	Key     []byte            `json:"key,omitempty"`
	Payload []byte            `json:"payload"`
	Headers map[string]string `json:"headers,omitempty"`
}

func encodeEnvelope(out bus.OutboundMessage) (string, error) {
	data, err := json.Marshal(wireEnvelope{Key: out.Key, Payload: out.Payload, Headers: out.Headers})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeEnvelope(topic, payload string) (bus.InboundMessage, error) {
	var w wireEnvelope
	if err := json.Unmarshal([]byte(payload), &w); err != nil {
		return bus.InboundMessage{}, err
	}
	return bus.InboundMessage{
		Topic:     topic,
		Partition: -1,
		Key:       w.Key,
		Payload:   w.Payload,
		Headers:   w.Headers,
	}, nil
}
