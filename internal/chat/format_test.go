package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/floatlabs/floatchat/internal/argo"
	"github.com/floatlabs/floatchat/internal/store"
)

func TestFormatContext(t *testing.T) {
	t.Parallel()

	got := FormatContext(testContext())
	require.Contains(t, got, "=== ARGO Dataset Overview ===")
	require.Contains(t, got, "Total records: 1245")
	require.Contains(t, got, "Floats (2): 2902746, 2902755")
	require.Contains(t, got, "Depth range: 0.40 to 1987.34 dbar")
	require.Contains(t, got, "Temperature: 2.11 to 29.99 °C (avg 14.23)")
	require.NotContains(t, got, "Sample Records")
}

func TestFormatContext_Empty(t *testing.T) {
	t.Parallel()

	got := FormatContext(&argo.Context{Stats: &argo.Snapshot{}})
	require.Contains(t, got, "dataset is empty")
	require.NotContains(t, got, "Total records")
}

func TestFormatContext_SampleCappedAtTen(t *testing.T) {
	t.Parallel()

	c := testContext()
	for i := 0; i < 15; i++ {
		c.Sample = append(c.Sample, store.Record{
			ID:       uint64(i + 1),
			Time:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Depth:    float64(i) * 10,
			Platform: "2902746",
		})
	}

	got := FormatContext(c)
	require.Contains(t, got, "=== Sample Records (10 of 15) ===")
	require.Equal(t, 10, strings.Count(got, "\n- 2025-03-01"))
}

func TestFormatContext_NullFieldsRenderNA(t *testing.T) {
	t.Parallel()

	c := testContext()
	c.Sample = []store.Record{{
		ID:       1,
		Time:     time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Depth:    5.2,
		Salinity: fptr(34.1),
		Platform: "2902746",
	}}

	got := FormatContext(c)
	require.Contains(t, got, "temp=n/a")
	require.Contains(t, got, "sal=34.10 PSU")
}

func TestBuildUserPrompt(t *testing.T) {
	t.Parallel()

	got := buildUserPrompt("how deep?", testContext())
	require.True(t, strings.HasSuffix(got, "User question: how deep?"))
	require.Contains(t, got, "=== ARGO Dataset Overview ===")
}
