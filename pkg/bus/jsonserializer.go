package bus

import (
	"encoding/json"
	"reflect"
)

// JSONSerializer is the default Serializer, marshaling message payloads as
// JSON. It is the only Serializer implementation provided by this package;
// callers needing another wire format (protobuf, avro) implement Serializer
// themselves.
type JSONSerializer struct{}

// NewJSONSerializer constructs the default Serializer.
func NewJSONSerializer() JSONSerializer { return JSONSerializer{} }

func (JSONSerializer) Serialize(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONSerializer) Deserialize(data []byte, t reflect.Type) (any, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
