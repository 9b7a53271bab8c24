package media

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]string
}

func (r *recorder) flush(refs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, refs)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.batches))
	copy(out, r.batches)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAddWithoutGroupFlushesImmediately(t *testing.T) {
	b := New(time.Hour)
	defer b.Close()
	rec := &recorder{}

	b.Add("", "one.jpg", rec.flush)

	require.Equal(t, [][]string{{"one.jpg"}}, rec.snapshot())
}

func TestGroupCoalescesIntoSingleBatch(t *testing.T) {
	b := New(30 * time.Millisecond)
	defer b.Close()
	rec := &recorder{}

	b.Add("album-1", "a.jpg", rec.flush)
	b.Add("album-1", "b.jpg", rec.flush)
	b.Add("album-1", "c.jpg", rec.flush)

	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })
	require.Equal(t, [][]string{{"a.jpg", "b.jpg", "c.jpg"}}, rec.snapshot())
}

func TestPhotoAfterQuietStartsNewBatch(t *testing.T) {
	b := New(20 * time.Millisecond)
	defer b.Close()
	rec := &recorder{}

	b.Add("album-1", "a.jpg", rec.flush)
	waitFor(t, func() bool { return len(rec.snapshot()) == 1 })

	b.Add("album-1", "b.jpg", rec.flush)
	waitFor(t, func() bool { return len(rec.snapshot()) == 2 })

	require.Equal(t, [][]string{{"a.jpg"}, {"b.jpg"}}, rec.snapshot())
}

func TestIndependentGroups(t *testing.T) {
	b := New(25 * time.Millisecond)
	defer b.Close()
	rec := &recorder{}

	b.Add("album-1", "a.jpg", rec.flush)
	b.Add("album-2", "x.jpg", rec.flush)
	b.Add("album-1", "b.jpg", rec.flush)

	waitFor(t, func() bool { return len(rec.snapshot()) == 2 })
	got := rec.snapshot()
	require.ElementsMatch(t, [][]string{{"a.jpg", "b.jpg"}, {"x.jpg"}}, got)
}

func TestCloseDropsPending(t *testing.T) {
	b := New(20 * time.Millisecond)
	rec := &recorder{}

	b.Add("album-1", "a.jpg", rec.flush)
	b.Close()

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, rec.snapshot())
}

func TestAddAfterCloseIsDropped(t *testing.T) {
	b := New(20 * time.Millisecond)
	rec := &recorder{}
	b.Close()

	b.Add("", "one.jpg", rec.flush)
	b.Add("album-1", "a.jpg", rec.flush)

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, rec.snapshot())
}
