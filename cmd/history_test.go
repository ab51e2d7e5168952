package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanq16/bingo/internal/history"
)

type fakeHistory struct {
	records []history.Record
	hours   int
	limit   int
}

func (f *fakeHistory) History(limit int, _ string) ([]history.Record, error) {
	f.limit = limit
	return f.records, nil
}

func (f *fakeHistory) Recent(hours int) ([]history.Record, error) {
	f.hours = hours
	return f.records, nil
}

func TestSelectHistory(t *testing.T) {
	f := &fakeHistory{records: []history.Record{
		{ID: 4, Platform: "YouTube"},
		{ID: 3, Platform: "Vimeo"},
		{ID: 2, Platform: "youtube"},
		{ID: 1, Platform: "YouTube"},
	}}

	recs, err := selectHistory(f, 20, "", 0)
	require.NoError(t, err)
	assert.Len(t, recs, 4)
	assert.Equal(t, 20, f.limit)
	assert.Zero(t, f.hours)

	recs, err = selectHistory(f, 2, "YouTube", 6)
	require.NoError(t, err)
	assert.Equal(t, 6, f.hours)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(4), recs[0].ID)
	assert.Equal(t, int64(2), recs[1].ID)
}
