package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-attendance/app/models"
)

func testRoster() []models.Student {
	return []models.Student{
		{RollNo: "A1", Name: "Alice", Section: "AIML-B", Branch: "AIML"},
		{RollNo: "A2", Name: "Bob", Section: "AIML-B", Branch: "AIML"},
		{RollNo: "A3", Name: "Carol", Section: "AIML-B", Branch: "AIML"},
	}
}

func testKey() Key {
	return Key{ClassName: "Data Structures", Section: "AIML-B", Date: "2025-03-10"}
}

// newTestReconciler flushes synchronously so assertions about the store
// never race the debounce timer.
func newTestReconciler(store SnapshotStore) *Reconciler {
	r := NewReconciler(testKey(), testRoster(), store)
	r.SetFlushDelay(0)
	return r
}

func rollNos(attendees []Attendee) []string {
	out := make([]string, len(attendees))
	for i, a := range attendees {
		out[i] = a.RollNo
	}
	return out
}

func TestApplyIsIdempotent(t *testing.T) {
	r := newTestReconciler(nil)
	as := Assertion{RollNo: "A1", Name: "Alice", SourceID: SourceLive}

	r.Apply([]Assertion{as})
	r.Apply([]Assertion{as})

	present := r.Present()
	require.Len(t, present, 1)
	assert.Equal(t, "A1", present[0].RollNo)
	assert.Equal(t, []string{SourceLive}, present[0].Sources)
}

func TestApplyMergesSourcesAsSet(t *testing.T) {
	r := newTestReconciler(nil)

	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: SourceLive}})
	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: "img_1"}})
	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: "img_1"}})

	present := r.Present()
	require.Len(t, present, 1)
	assert.ElementsMatch(t, []string{SourceLive, "img_1"}, present[0].Sources)
}

func TestApplyDiscardsUnknownSentinel(t *testing.T) {
	r := newTestReconciler(nil)

	r.Apply([]Assertion{
		{RollNo: "Unknown", Name: "Unknown", SourceID: SourceLive},
		{RollNo: "", Name: "", SourceID: SourceLive},
		{RollNo: "A2", Name: "Bob", SourceID: SourceLive},
	})

	assert.Equal(t, []string{"A2"}, rollNos(r.Present()))
}

func TestRetractSourceDeletesOrphanedRecords(t *testing.T) {
	r := newTestReconciler(nil)

	r.Apply([]Assertion{
		{RollNo: "A1", Name: "Alice", SourceID: "img_1"},
		{RollNo: "A2", Name: "Bob", SourceID: "img_1"},
		{RollNo: "A2", Name: "Bob", SourceID: SourceLive},
	})

	r.RetractSource("img_1")

	// A1 had only img_1 and must be gone; A2 keeps its live support.
	assert.False(t, r.IsPresent("A1"))
	require.True(t, r.IsPresent("A2"))
	present := r.Present()
	require.Len(t, present, 1)
	assert.Equal(t, []string{SourceLive}, present[0].Sources)
}

func TestRetractEverySourceEmptiesRecord(t *testing.T) {
	r := newTestReconciler(nil)

	r.Apply([]Assertion{
		{RollNo: "A1", Name: "Alice", SourceID: SourceLive},
		{RollNo: "A1", Name: "Alice", SourceID: "img_1"},
	})
	r.RetractSource(SourceLive)
	r.RetractSource("img_1")

	assert.Empty(t, r.Present())
}

func TestPresentAbsentPartitionRoster(t *testing.T) {
	r := newTestReconciler(nil)

	check := func() {
		present := r.Present()
		absent := r.Absent()
		assert.Equal(t, len(testRoster()), len(present)+len(absent))
		seen := make(map[string]bool)
		for _, a := range present {
			seen[a.RollNo] = true
		}
		for _, s := range absent {
			assert.False(t, seen[s.RollNo], "roll %s in both present and absent", s.RollNo)
		}
	}

	check()
	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: SourceLive}})
	check()
	r.MarkAllPresent()
	check()
	r.RetractSource(SourceBulkPresent)
	check()
}

func TestPresentAndAbsentAreSortedByRollNo(t *testing.T) {
	r := newTestReconciler(nil)

	r.Apply([]Assertion{
		{RollNo: "A3", Name: "Carol", SourceID: SourceLive},
		{RollNo: "A1", Name: "Alice", SourceID: SourceLive},
	})

	assert.Equal(t, []string{"A1", "A3"}, rollNos(r.Present()))
	absent := r.Absent()
	require.Len(t, absent, 1)
	assert.Equal(t, "A2", absent[0].RollNo)
}

func TestManualAddUnknownRollFails(t *testing.T) {
	r := newTestReconciler(nil)

	_, err := r.ManualAdd("X999")
	assert.ErrorIs(t, err, ErrNotInRoster)
	assert.Empty(t, r.Present())
}

func TestManualAddDuplicateFails(t *testing.T) {
	r := newTestReconciler(nil)

	first, err := r.ManualAdd("A1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", first.Name)

	_, err = r.ManualAdd("A1")
	assert.ErrorIs(t, err, ErrAlreadyPresent)

	present := r.Present()
	require.Len(t, present, 1)
	assert.Equal(t, []string{SourceManualEntry}, present[0].Sources)
}

func TestManualAddIsCaseInsensitive(t *testing.T) {
	roster := []models.Student{{RollNo: "A1", Name: "Alice"}}
	r := NewReconciler(testKey(), roster, nil)

	a, err := r.ManualAdd("  a1 ")
	require.NoError(t, err)
	assert.Equal(t, "A1", a.RollNo)
}

func TestApplyOverrideMarksRecords(t *testing.T) {
	r := newTestReconciler(nil)
	reason := "Student attended but left before the camera sweep"

	r.ApplyOverride([]Assertion{{RollNo: "A2", Name: "Bob"}}, reason)

	present := r.Present()
	require.Len(t, present, 1)
	assert.True(t, present[0].IsManualOverride)
	assert.Equal(t, reason, present[0].ManualOverrideReason)
	assert.Equal(t, []string{SourceManualOverride}, present[0].Sources)
}

func TestApplyOverrideUpgradesExistingRecord(t *testing.T) {
	r := newTestReconciler(nil)
	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: SourceLive}})

	r.ApplyOverride([]Assertion{{RollNo: "A1", Name: "Alice"}}, "correcting a missed detection")

	present := r.Present()
	require.Len(t, present, 1)
	assert.True(t, present[0].IsManualOverride)
	assert.ElementsMatch(t, []string{SourceLive, SourceManualOverride}, present[0].Sources)
}

func TestMarkAllPresentCoversRoster(t *testing.T) {
	r := newTestReconciler(nil)
	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: SourceLive}})

	r.MarkAllPresent()

	assert.Equal(t, []string{"A1", "A2", "A3"}, rollNos(r.Present()))
	assert.Empty(t, r.Absent())
	for _, a := range r.Present() {
		assert.Equal(t, []string{SourceBulkPresent}, a.Sources)
	}
}

func TestLiveMergeScenario(t *testing.T) {
	roster := []models.Student{
		{RollNo: "A1", Name: "Alice"},
		{RollNo: "A2", Name: "Bob"},
	}
	r := NewReconciler(testKey(), roster, nil)

	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: SourceLive}})
	assert.Equal(t, []string{"A1"}, rollNos(r.Present()))

	r.Apply([]Assertion{
		{RollNo: "A1", Name: "Alice", SourceID: SourceLive},
		{RollNo: "A2", Name: "Bob", SourceID: SourceLive},
	})

	present := r.Present()
	require.Len(t, present, 2)
	assert.Equal(t, []string{SourceLive}, present[0].Sources)
	assert.Equal(t, []string{SourceLive}, present[1].Sources)
}

func TestImageDeletionRetractsScenario(t *testing.T) {
	r := newTestReconciler(nil)

	// img_1 contributes A2 only; img_2 contributes A1 and A2.
	r.Apply([]Assertion{{RollNo: "A2", Name: "Bob", SourceID: "img_1"}})
	r.Apply([]Assertion{
		{RollNo: "A1", Name: "Alice", SourceID: "img_2"},
		{RollNo: "A2", Name: "Bob", SourceID: "img_2"},
	})

	r.RetractSource("img_1")

	assert.True(t, r.IsPresent("A1"))
	assert.True(t, r.IsPresent("A2"))
	for _, a := range r.Present() {
		assert.Equal(t, []string{"img_2"}, a.Sources)
	}
}

func TestFlushPersistsAndClearDeletes(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)
	key := testKey().StorageKey()

	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: SourceLive}})
	assert.True(t, store.Has(key))

	r.ClearAll()
	assert.False(t, store.Has(key))
	assert.Empty(t, r.Present())
}

func TestFlushDeletesKeyWhenEmpty(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)
	key := testKey().StorageKey()

	r.Apply([]Assertion{{RollNo: "A1", Name: "Alice", SourceID: "img_1"}})
	require.True(t, store.Has(key))

	r.RetractSource("img_1")
	assert.False(t, store.Has(key))
}

func TestPersistenceRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	r := newTestReconciler(store)

	r.Apply([]Assertion{
		{RollNo: "A1", Name: "Alice", SourceID: SourceLive},
		{RollNo: "A2", Name: "Bob", SourceID: "img_1"},
	})
	r.ApplyOverride([]Assertion{{RollNo: "A3", Name: "Carol"}}, "was present in the lab session")
	want := r.Present()
	r.Close()

	fresh := NewReconciler(testKey(), testRoster(), store)
	require.NoError(t, fresh.Restore())
	assert.Equal(t, want, fresh.Present())
}

func TestRestoreSanitizesTransientImageRefs(t *testing.T) {
	store := NewMemoryStore()
	key := testKey().StorageKey()
	require.NoError(t, store.Save(key, []Attendee{
		{RollNo: "A1", Name: "Alice", Sources: []string{SourceLive}, Img: "blob:http://localhost/abc"},
		{RollNo: "A2", Name: "Bob", Sources: []string{SourceLive}, Img: "http://camera.local/shot.jpg"},
		{RollNo: "A3", Name: "Carol", Sources: []string{SourceLive}, Img: "data:image/jpeg;base64,xyz"},
	}))

	r := NewReconciler(testKey(), testRoster(), store)
	require.NoError(t, r.Restore())

	for _, a := range r.Present() {
		if a.RollNo == "A3" {
			assert.Equal(t, "data:image/jpeg;base64,xyz", a.Img)
		} else {
			assert.Empty(t, a.Img)
		}
	}
}

func TestRestoreSkipsRecordsWithoutSources(t *testing.T) {
	store := NewMemoryStore()
	key := testKey().StorageKey()
	require.NoError(t, store.Save(key, []Attendee{
		{RollNo: "A1", Name: "Alice", Sources: []string{SourceLive}},
		{RollNo: "A2", Name: "Bob"},
		{Name: "no roll"},
	}))

	r := NewReconciler(testKey(), testRoster(), store)
	require.NoError(t, r.Restore())
	assert.Equal(t, []string{"A1"}, rollNos(r.Present()))
}

func TestStorageKeyFormat(t *testing.T) {
	key := Key{ClassName: "Data Structures", Section: "AIML-B", Date: "2025-03-10"}
	assert.Equal(t, "SA_attendance_Data Structures_AIML-B_2025-03-10", key.StorageKey())
}
