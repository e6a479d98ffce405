package memtransport_test

import (
	"testing"

	"github.com/chris-alexander-pop/system-design-library/pkg/bus/bustest"
	"github.com/chris-alexander-pop/system-design-library/pkg/bus/memtransport"
)

func TestMemTransportConformance(t *testing.T) {
	transport := memtransport.New(memtransport.Config{BufferSize: 100})
	defer transport.Close()

	bustest.RunTransportTests(t, transport)
}
