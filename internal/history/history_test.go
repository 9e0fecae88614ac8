package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/quickcast/internal/blob"
	"github.com/asheshgoplani/quickcast/internal/recstore"
)

func newTestHistory(t *testing.T, opts Options) (*History, *blob.Area) {
	t.Helper()
	dir := t.TempDir()
	store, err := recstore.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewArea(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	return New(store, blobs, opts), blobs
}

func defaultOpts() Options {
	return Options{
		MaxEntries:    500,
		Retention:     30 * 24 * time.Hour,
		MaxImageBytes: 10 << 20,
		Deduplicate:   true,
	}
}

// clock returns a controllable now func starting at base.
func clock(base time.Time) (func() time.Time, func(d time.Duration)) {
	cur := base
	return func() time.Time { return cur }, func(d time.Duration) { cur = cur.Add(d) }
}

func TestAddText_DedupMoveToFront(t *testing.T) {
	h, _ := newTestHistory(t, defaultOpts())
	now, advance := clock(time.UnixMilli(100))
	h.now = now

	require.NoError(t, h.AddText("abc", ""))
	advance(time.Millisecond)
	require.NoError(t, h.AddText("xyz", ""))
	advance(time.Millisecond)
	require.NoError(t, h.AddText("abc", ""))

	entries, err := h.Entries(0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "dedup must keep a single abc")

	assert.Equal(t, "abc", entries[0].Content)
	assert.Equal(t, int64(102), entries[0].Timestamp.UnixMilli(), "survivor carries the new timestamp")
	assert.Equal(t, "xyz", entries[1].Content)
}

func TestAddText_DedupIdempotent(t *testing.T) {
	h, _ := newTestHistory(t, defaultOpts())

	require.NoError(t, h.AddText("same", ""))
	require.NoError(t, h.AddText("same", ""))

	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddText_NoDedupWhenDisabled(t *testing.T) {
	opts := defaultOpts()
	opts.Deduplicate = false
	h, _ := newTestHistory(t, opts)

	require.NoError(t, h.AddText("same", ""))
	require.NoError(t, h.AddText("same", ""))

	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBoundedStore_SevenIntoFive(t *testing.T) {
	opts := defaultOpts()
	opts.MaxEntries = 5
	h, _ := newTestHistory(t, opts)
	now, advance := clock(time.UnixMilli(100))
	h.now = now

	contents := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, c := range contents {
		require.NoError(t, h.AddText(c, ""))
		advance(time.Millisecond)

		n, err := h.Len()
		require.NoError(t, err)
		assert.LessOrEqual(t, n, 5, "bound must hold after every add")
	}

	entries, err := h.Entries(0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "g", entries[0].Content)
	assert.Equal(t, "c", entries[4].Content)
}

func TestAddImage_RoundTripAndOrphanCleanup(t *testing.T) {
	opts := defaultOpts()
	opts.MaxEntries = 2
	h, blobs := newTestHistory(t, opts)

	img1 := []byte("image payload one")
	img2 := []byte("image payload two")
	img3 := []byte("image payload three")

	require.NoError(t, h.AddImage(img1, 100, 50, "Shot"))
	require.NoError(t, h.AddImage(img2, 200, 100, "Shot"))
	require.NoError(t, h.AddImage(img3, 300, 150, "Shot"))

	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Blob files on disk must equal exactly the refs of surviving entries.
	entries, err := h.Entries(0, 10)
	require.NoError(t, err)
	liveRefs := map[string]bool{}
	for _, e := range entries {
		liveRefs[e.BlobRef] = true
		assert.True(t, blobs.Exists(e.BlobRef), "live entry blob must exist")
	}
	onDisk, err := blobs.List()
	require.NoError(t, err)
	assert.Len(t, onDisk, 2)
	for _, ref := range onDisk {
		assert.True(t, liveRefs[ref], "blob %s has no live entry", ref)
	}
}

func TestAddImage_OverCeilingRejected(t *testing.T) {
	opts := defaultOpts()
	opts.MaxImageBytes = 10
	h, blobs := newTestHistory(t, opts)

	require.NoError(t, h.AddImage(make([]byte, 11), 1, 1, ""))

	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n, "oversized image must be rejected outright")

	refs, err := blobs.List()
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestEntries_ExcludesExpired(t *testing.T) {
	opts := defaultOpts()
	opts.Retention = time.Hour
	h, _ := newTestHistory(t, opts)
	now, advance := clock(time.Unix(1000000, 0))
	h.now = now

	require.NoError(t, h.AddText("old", ""))
	advance(2 * time.Hour)
	require.NoError(t, h.AddText("fresh", ""))

	entries, err := h.Entries(0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1, "expired entry must be hidden from reads")
	assert.Equal(t, "fresh", entries[0].Content)

	// Physically still present until a sweep/trim.
	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSweep_PhysicalTrimWhenOverCapacity(t *testing.T) {
	opts := defaultOpts()
	opts.Retention = time.Hour
	opts.MaxEntries = 10
	h, _ := newTestHistory(t, opts)
	now, advance := clock(time.Unix(1000000, 0))
	h.now = now

	for _, c := range []string{"x1", "x2", "x3"} {
		require.NoError(t, h.AddText(c, ""))
		advance(time.Minute)
	}
	advance(3 * time.Hour)
	require.NoError(t, h.AddText("y1", ""))

	// Capacity lowered between sessions: 4 physical entries now exceed
	// it and three are past retention, so the sweep trims physically.
	h.opts.MaxEntries = 3
	require.NoError(t, h.Sweep())

	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := h.Entries(0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "y1", entries[0].Content)
}

func TestSweep_NoopWithinCapacity(t *testing.T) {
	opts := defaultOpts()
	opts.Retention = time.Hour
	h, _ := newTestHistory(t, opts)
	now, advance := clock(time.Unix(1000000, 0))
	h.now = now

	require.NoError(t, h.AddText("old", ""))
	advance(2 * time.Hour)
	require.NoError(t, h.AddText("fresh", ""))

	require.NoError(t, h.Sweep())

	// Within capacity: expired entries stay until count pressure builds.
	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSearchText(t *testing.T) {
	h, _ := newTestHistory(t, defaultOpts())

	require.NoError(t, h.AddText("Hello World", ""))
	require.NoError(t, h.AddText("goodbye", ""))
	require.NoError(t, h.AddImage([]byte("img"), 1, 1, ""))

	hits, err := h.SearchText("hello", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Hello World", hits[0].Content)
}

func TestRemove_ReleasesBlob(t *testing.T) {
	h, blobs := newTestHistory(t, defaultOpts())

	require.NoError(t, h.AddImage([]byte("payload"), 1, 1, ""))
	entries, err := h.Entries(0, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	ref := entries[0].BlobRef

	require.NoError(t, h.Remove(entries[0].ID))
	assert.False(t, blobs.Exists(ref), "removed entry's blob must be deleted")
}

func TestClear_DeletesEverything(t *testing.T) {
	h, blobs := newTestHistory(t, defaultOpts())

	require.NoError(t, h.AddText("text", ""))
	require.NoError(t, h.AddImage([]byte("img"), 1, 1, ""))

	require.NoError(t, h.Clear())

	n, err := h.Len()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	refs, err := blobs.List()
	require.NoError(t, err)
	assert.Empty(t, refs)
}
