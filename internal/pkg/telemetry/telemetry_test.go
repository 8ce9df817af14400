package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetup_NoEndpointIsNoop(t *testing.T) {
	shutdown := Setup(Config{ServiceName: "schedule-core"})
	assert.NoError(t, shutdown(context.Background()))
}
