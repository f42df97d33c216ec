package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ettoremessina/CveGuardian/model"
)

func rawFeedItem(id string) RawItem {
	doc := fmt.Sprintf(`{
		"id": %q,
		"published": "2024-01-01T00:00:00.000",
		"lastModified": "2024-01-02T00:00:00.000",
		"descriptions": [{"lang": "en", "value": "test entry"}]
	}`, id)
	return RawItem{Cve: json.RawMessage(doc)}
}

type fakeFeed struct {
	items    []RawItem
	pageSize int

	windows      []*Window
	startIndexes []int
}

func (f *fakeFeed) FetchPage(_ context.Context, startIndex int, window *Window) (*Page, error) {
	f.windows = append(f.windows, window)
	f.startIndexes = append(f.startIndexes, startIndex)

	end := startIndex + f.pageSize
	if end > len(f.items) {
		end = len(f.items)
	}
	var batch []RawItem
	if startIndex < len(f.items) {
		batch = f.items[startIndex:end]
	}
	return &Page{
		ResultsPerPage:  len(batch),
		StartIndex:      startIndex,
		TotalResults:    len(f.items),
		Vulnerabilities: batch,
	}, nil
}

type fakeStore struct {
	watermark time.Time
	upserts   []model.CVE
	replaced  map[string][]model.AffectedItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{replaced: map[string][]model.AffectedItem{}}
}

func (s *fakeStore) Watermark(_ context.Context) (time.Time, error) {
	return s.watermark, nil
}

func (s *fakeStore) UpsertCVE(_ context.Context, cve model.CVE) error {
	s.upserts = append(s.upserts, cve)
	return nil
}

func (s *fakeStore) ReplaceAffected(_ context.Context, cveID string, items []model.AffectedItem) error {
	s.replaced[cveID] = items
	return nil
}

func newTestScheduler(feed Feed, store Store) *Scheduler {
	return NewScheduler(feed, store, time.Hour, time.Millisecond, zap.NewNop())
}

func TestRunCycleFullSync(t *testing.T) {
	feed := &fakeFeed{
		items:    []RawItem{rawFeedItem("CVE-2024-1"), rawFeedItem("CVE-2024-2"), rawFeedItem("CVE-2024-3")},
		pageSize: 2,
	}
	store := newFakeStore()
	s := newTestScheduler(feed, store)

	require.NoError(t, s.RunCycle(context.Background()))

	assert.Equal(t, []int{0, 2}, feed.startIndexes, "pagination advances by page length")
	require.Len(t, feed.windows, 2)
	assert.Nil(t, feed.windows[0], "empty store means full sync with no window")

	require.Len(t, store.upserts, 3)
	assert.Equal(t, "CVE-2024-1", store.upserts[0].ID)
	assert.Contains(t, store.replaced, "CVE-2024-3")
}

func TestRunCycleIncrementalWindow(t *testing.T) {
	feed := &fakeFeed{items: []RawItem{rawFeedItem("CVE-2024-1")}, pageSize: 10}
	store := newFakeStore()
	store.watermark = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s := newTestScheduler(feed, store)
	s.now = func() time.Time { return time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, s.RunCycle(context.Background()))

	require.Len(t, feed.windows, 1)
	require.NotNil(t, feed.windows[0])
	assert.Equal(t, store.watermark, feed.windows[0].Start)
	assert.Equal(t, s.now(), feed.windows[0].End)
}

func TestRunCycleClampsStaleWatermark(t *testing.T) {
	feed := &fakeFeed{items: []RawItem{rawFeedItem("CVE-2024-1")}, pageSize: 10}
	store := newFakeStore()
	store.watermark = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	s := newTestScheduler(feed, store)
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.RunCycle(context.Background()))

	require.Len(t, feed.windows, 1)
	require.NotNil(t, feed.windows[0])
	assert.Equal(t, now.AddDate(0, 0, -maxWindowDays), feed.windows[0].Start,
		"window start clamps to the feed's maximum span")
}

func TestRunCycleSkipsUnparseableItems(t *testing.T) {
	bad := RawItem{Cve: json.RawMessage(`{"published": "not-a-date"}`)}
	feed := &fakeFeed{items: []RawItem{bad, rawFeedItem("CVE-2024-2")}, pageSize: 10}
	store := newFakeStore()

	s := newTestScheduler(feed, store)
	require.NoError(t, s.RunCycle(context.Background()))

	require.Len(t, store.upserts, 1, "one malformed record never aborts the batch")
	assert.Equal(t, "CVE-2024-2", store.upserts[0].ID)
}

func TestRunCycleEmptyFeed(t *testing.T) {
	feed := &fakeFeed{pageSize: 10}
	store := newFakeStore()

	s := newTestScheduler(feed, store)
	require.NoError(t, s.RunCycle(context.Background()))

	assert.Empty(t, store.upserts)
	assert.Equal(t, []int{0}, feed.startIndexes, "a single empty page terminates the cycle")
}
