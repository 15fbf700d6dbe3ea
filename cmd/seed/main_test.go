package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedInputsAreValid(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	inputs := seedInputs(now)

	require.Len(t, inputs, 5)
	for _, in := range inputs {
		assert.NoError(t, in.Validate(), in.Location)
	}
	assert.Equal(t, "2024-06-01T10:00:00.000Z", inputs[0].Timestamp)
	assert.Len(t, inputs[0].Images, 2)
}
