package workflows

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	temporallog "go.temporal.io/sdk/log"

	"github.com/ghuser/ghshop/pkg/config"
	"github.com/ghuser/ghshop/pkg/logger"
)

func TestTemporalLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log := newTemporalLogger(logger.NewWithWriter(&config.Config{LogLevel: "debug"}, &buf))

	wl, ok := log.(temporallog.WithLogger)
	require.True(t, ok)
	wl.With("WorkflowID", "delivery-o-1").Warn("activity retry", "attempt", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "temporal", entry["component"])
	assert.Equal(t, "delivery-o-1", entry["WorkflowID"])
	assert.EqualValues(t, 2, entry["attempt"])
}
