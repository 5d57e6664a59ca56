package itemstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/roadmap/domain"
	"github.com/fastygo/roadmap/internal/realtime"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func item(id, title string, status domain.Status) domain.RoadmapItem {
	return domain.RoadmapItem{
		ID:        id,
		Title:     title,
		Status:    status,
		Tags:      []string{},
		CreatedBy: domain.Profile{ID: "u1", Name: "Anna"},
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func insertChange(it domain.RoadmapItem, actor string) realtime.Change {
	return realtime.Change{Type: realtime.Insert, ID: it.ID, Row: realtime.RowFromItem(it), ActorID: actor}
}

func statusChange(id string, st domain.Status, at time.Time, actor string) realtime.Change {
	row := realtime.RowFromItem(domain.RoadmapItem{ID: id, Status: st, UpdatedAt: at}, realtime.ColStatus)
	return realtime.Change{Type: realtime.Update, ID: id, Row: row, ActorID: actor}
}

func ids(items []domain.RoadmapItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestApplyInsert_AppendsNewItem(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "Foundation", domain.StatusDone)})

	out := s.ApplyRemoteChange(insertChange(item("r2", "Walls", domain.StatusPlanned), "u2"))

	assert.True(t, out.Applied)
	assert.Equal(t, "Walls", out.Title)
	assert.Equal(t, []string{"r1", "r2"}, ids(s.Snapshot()))
}

func TestApplyInsert_Idempotent(t *testing.T) {
	s := New(nil)
	ch := insertChange(item("r1", "Roof", domain.StatusPlanned), "u2")

	s.ApplyRemoteChange(ch)
	once := s.Snapshot()
	s.ApplyRemoteChange(ch)
	twice := s.Snapshot()

	assert.Equal(t, once, twice)
	assert.Len(t, twice, 1)
}

func TestApplyInsert_NeverDuplicatesIDs(t *testing.T) {
	s := New(nil)
	seq := []string{"a", "b", "a", "c", "b", "a"}
	for i, id := range seq {
		it := item(id, "v"+string(rune('0'+i)), domain.StatusPlanned)
		s.ApplyRemoteChange(insertChange(it, "u2"))
	}

	seen := map[string]bool{}
	for _, it := range s.Snapshot() {
		require.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids(s.Snapshot()))
	got, _ := s.Get("a")
	assert.Equal(t, "v5", got.Title, "confirmation refreshes field values")
}

func TestApplyInsert_ConfirmsOptimisticInsertInPlace(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "One", domain.StatusPlanned), item("r2", "Two", domain.StatusPlanned)})
	local := item("r3", "Tile selection", domain.StatusPlanned)
	local.UpdatedAt = time.Time{}
	s.UpsertLocal(local)
	s.UpsertLocal(item("r4", "Paint", domain.StatusPlanned))

	remote := item("r3", "Tile selection", domain.StatusPlanned)
	remote.CreatedBy = domain.Profile{ID: "u1", Name: "Anna", Surname: "de Vries"}
	s.ApplyRemoteChange(insertChange(remote, "u1"))

	assert.Equal(t, []string{"r1", "r2", "r3", "r4"}, ids(s.Snapshot()))
	got, _ := s.Get("r3")
	assert.Equal(t, "de Vries", got.CreatedBy.Surname)
	assert.False(t, s.Pending("r3"))
}

func TestApplyUpdate_PartialMerge(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "A", domain.StatusPlanned)})

	out := s.ApplyRemoteChange(statusChange("r1", domain.StatusActive, testNow.Add(time.Minute), "u2"))

	got, ok := s.Get("r1")
	require.True(t, ok)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.True(t, out.StatusChanged)
	assert.Equal(t, testNow.Add(time.Minute), got.UpdatedAt)
}

func TestApplyUpdate_UnknownIDIgnored(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "A", domain.StatusPlanned)})
	before := s.Snapshot()

	out := s.ApplyRemoteChange(statusChange("ghost", domain.StatusDone, testNow, "u2"))

	assert.False(t, out.Applied)
	assert.Equal(t, before, s.Snapshot())
}

func TestApplyUpdate_ClearsNullableColumn(t *testing.T) {
	start := testNow.AddDate(0, 0, 3)
	it := item("r1", "A", domain.StatusPlanned)
	it.StartDate = &start
	s := New(nil)
	s.Replace([]domain.RoadmapItem{it})

	row := realtime.RowFromItem(domain.RoadmapItem{ID: "r1", UpdatedAt: testNow.Add(time.Minute)}, realtime.ColStartDate)
	s.ApplyRemoteChange(realtime.Change{Type: realtime.Update, ID: "r1", Row: row})

	got, _ := s.Get("r1")
	assert.Nil(t, got.StartDate)
	assert.Equal(t, "A", got.Title)
}

func TestApplyDelete_IdempotentAndCapturesTitle(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "A", domain.StatusPlanned), item("r5", "Kitchen", domain.StatusActive)})
	del := realtime.Change{Type: realtime.Delete, ID: "r5", ActorID: "u2"}

	first := s.ApplyRemoteChange(del)
	once := s.Snapshot()
	second := s.ApplyRemoteChange(del)

	assert.True(t, first.Applied)
	assert.Equal(t, "Kitchen", first.Title)
	assert.False(t, second.Applied)
	assert.Empty(t, second.Title)
	assert.Equal(t, once, s.Snapshot())
	assert.Equal(t, []string{"r1"}, ids(s.Snapshot()))
}

func TestLocalDeleteThenRemoteDelete(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r5", "Kitchen", domain.StatusActive)})

	assert.True(t, s.Remove("r5"))
	out := s.ApplyRemoteChange(realtime.Change{Type: realtime.Delete, ID: "r5"})

	assert.False(t, out.Applied)
	assert.Empty(t, s.Snapshot())
}

func TestStaleInsertAfterDeleteIgnored(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r5", "Kitchen", domain.StatusActive)})
	s.Remove("r5")

	out := s.ApplyRemoteChange(insertChange(item("r5", "Kitchen", domain.StatusActive), "u2"))

	assert.False(t, out.Applied)
	assert.Empty(t, s.Snapshot())
}

func TestMalformedChangeDropped(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "A", domain.StatusPlanned)})
	before := s.Snapshot()

	out := s.ApplyRemoteChange(realtime.Change{Type: realtime.Update})

	assert.False(t, out.Applied)
	assert.Equal(t, before, s.Snapshot())
}

func TestStaleUpdateKeepsOptimisticValue(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "A", domain.StatusPlanned)})

	edited := item("r1", "A", domain.StatusActive)
	edited.UpdatedAt = testNow.Add(time.Second)
	s.UpsertLocal(edited)

	// An older commit for the same row arrives late.
	out := s.ApplyRemoteChange(statusChange("r1", domain.StatusWaiting, testNow.Add(-time.Minute), "u2"))

	got, _ := s.Get("r1")
	assert.True(t, out.Stale)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.True(t, s.Pending("r1"))
}

func TestNewerRemoteUpdateWinsOverOptimistic(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "Tile selection", domain.StatusPlanned)})
	s.UpsertLocal(item("r1", "Tile selection", domain.StatusActive))

	out := s.ApplyRemoteChange(statusChange("r1", domain.StatusDone, testNow.Add(time.Minute), "u2"))

	got, _ := s.Get("r1")
	assert.False(t, out.Stale)
	assert.Equal(t, domain.StatusDone, got.Status)
	assert.False(t, s.Pending("r1"))
}

func TestRemoteUpdateOnOtherColumnKeepsPendingColumn(t *testing.T) {
	s := New(nil)
	s.Replace([]domain.RoadmapItem{item("r1", "A", domain.StatusPlanned)})
	s.UpsertLocal(item("r1", "A", domain.StatusActive))

	row := realtime.RowFromItem(domain.RoadmapItem{ID: "r1", Title: "B", UpdatedAt: testNow.Add(time.Minute)}, realtime.ColTitle)
	s.ApplyRemoteChange(realtime.Change{Type: realtime.Update, ID: "r1", Row: row, ActorID: "u2"})

	got, _ := s.Get("r1")
	assert.Equal(t, "B", got.Title)
	assert.Equal(t, domain.StatusActive, got.Status)
	assert.True(t, s.Pending("r1"))
}
