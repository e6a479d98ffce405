package bus_test

import (
	"reflect"
	"testing"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderCreated struct {
	OrderID string
	Total   int
}

func TestJSONSerializerRoundTrip(t *testing.T) {
	s := bus.NewJSONSerializer()

	data, err := s.Serialize(orderCreated{OrderID: "o-1", Total: 42})
	require.NoError(t, err)

	value, err := s.Deserialize(data, reflect.TypeOf(orderCreated{}))
	require.NoError(t, err)
	assert.Equal(t, orderCreated{OrderID: "o-1", Total: 42}, value)
}
