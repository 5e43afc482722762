package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "posted_media.json"))
}

func TestRecordsMissingFileIsEmpty(t *testing.T) {
	j := newJournal(t)
	assert.Empty(t, j.Records())
}

func TestRecordsCorruptFileIsEmpty(t *testing.T) {
	j := newJournal(t)
	require.NoError(t, os.WriteFile(j.path, []byte("[{broken"), 0644))

	assert.Empty(t, j.Records())
}

func TestAppendAccumulatesInOrder(t *testing.T) {
	j := newJournal(t)
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	for i, code := range []string{"A", "B", "C"} {
		require.NoError(t, j.Append(Record{
			MediaID:   code + "_7",
			Code:      code,
			MediaType: "photo",
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Permalink: "https://www.instagram.com/p/" + code + "/",
		}))
	}

	records := j.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].Code)
	assert.Equal(t, "B", records[1].Code)
	assert.Equal(t, "C", records[2].Code)
	assert.True(t, records[0].Timestamp.Before(records[1].Timestamp))
	assert.True(t, records[1].Timestamp.Before(records[2].Timestamp))
}

func TestAppendAfterCorruptFileStartsFresh(t *testing.T) {
	j := newJournal(t)
	require.NoError(t, os.WriteFile(j.path, []byte("garbage"), 0644))

	require.NoError(t, j.Append(Record{MediaID: "1", Code: "X", MediaType: "photo", Timestamp: time.Now()}))

	records := j.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "X", records[0].Code)
}
