package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysToFetch(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	days, err := daysToFetch("", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-09"}, days)

	days, err = daysToFetch("2025-01-31", "2024-01-01", "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-31"}, days)

	days, err = daysToFetch("", "2025-02-27", "2025-03-02", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-27", "2025-02-28", "2025-03-01", "2025-03-02"}, days)

	days, err = daysToFetch("", "2025-06-08", "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-08", "2025-06-09"}, days)

	_, err = daysToFetch("", "2025-06-08", "2025-06-01", now)
	assert.Error(t, err)

	_, err = daysToFetch("06/01/2025", "", "", now)
	assert.Error(t, err)
}
