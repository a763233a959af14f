package argo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/floatlabs/floatchat/internal/store"
)

func TestSampleSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		want    *store.FilterSpec
	}{
		{
			name:    "no keywords no sample",
			message: "What is the average salinity?",
			want:    nil,
		},
		{
			name:    "surface keyword",
			message: "Tell me about surface water",
			want:    &store.FilterSpec{MaxDepth: fptr(50), Limit: 20},
		},
		{
			name:    "deep keyword",
			message: "what lives at the bottom?",
			want:    &store.FilterSpec{MinDepth: fptr(500), Limit: 20},
		},
		{
			name:    "surface wins over deep",
			message: "compare the surface with the deep layers",
			want:    &store.FilterSpec{MaxDepth: fptr(50), Limit: 20},
		},
		{
			name:    "temperature alone",
			message: "how warm is it?",
			want:    &store.FilterSpec{Limit: 30},
		},
		{
			name:    "temperature widens depth limit",
			message: "deep water temperature",
			want:    &store.FilterSpec{MinDepth: fptr(500), Limit: 30},
		},
		{
			name:    "surface temperature keeps depth bound",
			message: "surface temperature",
			want:    &store.FilterSpec{MaxDepth: fptr(50), Limit: 30},
		},
		{
			name:    "temp substring matches temperature word",
			message: "Temperature trends please",
			want:    &store.FilterSpec{Limit: 30},
		},
		{
			name:    "bare show request",
			message: "show me some data",
			want:    &store.FilterSpec{Limit: 20},
		},
		{
			name:    "case insensitive",
			message: "SHALLOW profiles",
			want:    &store.FilterSpec{MaxDepth: fptr(50), Limit: 20},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, sampleSpec(tt.message))
		})
	}
}

func TestAssembleContext_NoSampleKeywords(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{summary: populatedSummary()}
	svc := New(fs, discardLogger())

	got, err := svc.AssembleContext(context.Background(), "what is salinity?")
	require.NoError(t, err)
	require.NotNil(t, got.Stats)
	require.Nil(t, got.Sample)
	require.Empty(t, fs.queries, "no sample query expected")
}

func TestAssembleContext_WithSample(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{
		summary: populatedSummary(),
		records: []store.Record{{ID: 1, Platform: "2902746"}},
	}
	svc := New(fs, discardLogger())

	got, err := svc.AssembleContext(context.Background(), "show me surface data")
	require.NoError(t, err)
	require.Len(t, got.Sample, 1)
	require.Len(t, fs.queries, 1)
	require.Equal(t, 50.0, *fs.queries[0].MaxDepth)
}

func TestAssembleContext_StatsErrorPropagates(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{summaryErr: errors.New("boom")}
	svc := New(fs, discardLogger())

	_, err := svc.AssembleContext(context.Background(), "show me data")
	require.Error(t, err)
}

func TestAssembleContext_SampleErrorDegrades(t *testing.T) {
	t.Parallel()

	fs := &fakeStore{summary: populatedSummary(), queryErr: errors.New("boom")}
	svc := New(fs, discardLogger())

	got, err := svc.AssembleContext(context.Background(), "show me data")
	require.NoError(t, err)
	require.NotNil(t, got.Stats)
	require.Empty(t, got.Sample)
}
