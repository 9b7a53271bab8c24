package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/teleshop/internal/media"
	"github.com/m3rciful/teleshop/internal/shop"
)

const testAdminID int64 = 42

type fakeCatalog struct {
	mu        sync.Mutex
	created   []shop.NewProduct
	updates   map[int64][]shop.ProductPatch
	createErr error
}

func (f *fakeCatalog) Create(_ context.Context, p shop.NewProduct) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, p)
	return int64(len(f.created)), nil
}

func (f *fakeCatalog) Update(_ context.Context, id int64, patch shop.ProductPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updates == nil {
		f.updates = map[int64][]shop.ProductPatch{}
	}
	f.updates[id] = append(f.updates[id], patch)
	return nil
}

type fakeUploader struct {
	fail bool
}

func (f *fakeUploader) Upload(_ context.Context, fileID string) (string, error) {
	if f.fail {
		return "", errors.New("fetch failed")
	}
	return "https://cdn.test/" + fileID + ".jpg", nil
}

type notifyRec struct {
	mu      sync.Mutex
	replies []Reply
}

func (n *notifyRec) notify(_ context.Context, r Reply) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, r)
}

func (n *notifyRec) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.replies)
}

type harness struct {
	t        *testing.T
	eng      *Engine
	store    Store
	catalog  *fakeCatalog
	uploader *fakeUploader
	rec      *notifyRec
}

func newHarness(t *testing.T, quiet time.Duration) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		store:    NewMemoryStore(),
		catalog:  &fakeCatalog{},
		uploader: &fakeUploader{},
		rec:      &notifyRec{},
	}
	batcher := media.New(quiet)
	t.Cleanup(batcher.Close)
	h.eng = NewEngine(testAdminID, h.store, h.catalog, h.uploader, batcher, h.rec.notify)
	return h
}

// must asserts the step produced a non-empty reply.
func (h *harness) must(r Reply, err error) Reply {
	h.t.Helper()
	require.NoError(h.t, err)
	require.False(h.t, r.Empty())
	return r
}

// silent asserts the step produced no reply.
func (h *harness) silent(r Reply, err error) {
	h.t.Helper()
	require.NoError(h.t, err)
	require.True(h.t, r.Empty())
}

func (h *harness) state() *State {
	h.t.Helper()
	st, err := h.store.Get(context.Background(), testAdminID)
	require.NoError(h.t, err)
	return st
}

// advanceToPhoto walks the add flow up to the photo step.
func (h *harness) advanceToPhoto(ctx context.Context) {
	h.t.Helper()
	h.must(h.eng.StartAdd(ctx))
	h.must(h.eng.ChooseCategory(ctx, "Clothes"))
	h.must(h.eng.HandleText(ctx, "Hoodie"))
	h.must(h.eng.HandleText(ctx, "Warm hoodie"))
	h.must(h.eng.HandleText(ctx, "45"))
	h.must(h.eng.HandleText(ctx, "10"))
}

func TestAddFlowHappyPath(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.advanceToPhoto(ctx)

	// Single photo without a group id flushes synchronously.
	h.silent(h.eng.HandlePhoto(ctx, Photo{FileID: "p1"}))
	require.Equal(t, 1, h.rec.count())

	h.must(h.eng.ChooseDiscount(ctx, false))
	r := h.must(h.eng.ChoosePreorder(ctx, false))
	require.Contains(t, r.Text, "Товар добавлен")

	require.Len(t, h.catalog.created, 1)
	p := h.catalog.created[0]
	require.Equal(t, "Hoodie", p.Name)
	require.Equal(t, "Одежда", p.Category)
	require.Equal(t, "Warm hoodie", p.Description)
	require.Equal(t, 45.0, p.Price)
	require.Equal(t, 10, p.Quantity)
	require.Equal(t, []string{"https://cdn.test/p1.jpg"}, p.Images)
	require.Nil(t, p.OldPrice)
	require.False(t, p.IsPreorder)

	require.Nil(t, h.state())
}

func TestDiscountBranchSetsOldPrice(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.advanceToPhoto(ctx)
	h.silent(h.eng.HandlePhoto(ctx, Photo{FileID: "p1"}))

	h.must(h.eng.ChooseDiscount(ctx, true))
	h.must(h.eng.HandleText(ctx, "120"))
	h.must(h.eng.ChoosePreorder(ctx, true))

	require.Len(t, h.catalog.created, 1)
	p := h.catalog.created[0]
	require.NotNil(t, p.OldPrice)
	require.Equal(t, 120.0, *p.OldPrice)
	require.True(t, p.IsPreorder)
}

func TestNumericStepsRepromptOnBadInput(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.must(h.eng.StartAdd(ctx))
	h.must(h.eng.ChooseCategory(ctx, "Accs"))
	h.must(h.eng.HandleText(ctx, "Bag"))
	h.must(h.eng.HandleText(ctx, "Leather bag"))

	r, err := h.eng.HandleText(ctx, "not a number")
	require.NoError(t, err)
	require.Equal(t, "Нужно число!", r.Text)
	require.Equal(t, StepAwaitPrice, h.state().Step.Kind)

	// A valid value then advances normally.
	h.must(h.eng.HandleText(ctx, "30"))
	require.Equal(t, StepAwaitQty, h.state().Step.Kind)
}

func TestCancelClearsState(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.must(h.eng.StartAdd(ctx))
	h.must(h.eng.ChooseCategory(ctx, "Clothes"))
	h.must(h.eng.HandleText(ctx, "Hoodie"))

	require.NoError(t, h.eng.Cancel(ctx))
	require.Nil(t, h.state())

	// After cancel, further text is ignored.
	h.silent(h.eng.HandleText(ctx, "ghost input"))
}

func TestWrongInputKindIsIgnored(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.advanceToPhoto(ctx)

	// Text while a photo is expected: no reply, no state change.
	h.silent(h.eng.HandleText(ctx, "this is not a photo"))
	require.Equal(t, StepAwaitPhoto, h.state().Step.Kind)
}

func TestGroupedPhotosCommitAsOneBatch(t *testing.T) {
	h := newHarness(t, 30*time.Millisecond)
	ctx := context.Background()

	h.advanceToPhoto(ctx)
	for _, id := range []string{"p1", "p2", "p3"} {
		h.silent(h.eng.HandlePhoto(ctx, Photo{FileID: id, GroupID: "album-9"}))
	}

	require.Eventually(t, func() bool { return h.rec.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	st := h.state()
	require.Equal(t, StepAskDiscount, st.Step.Kind)
	require.Equal(t, []string{
		"https://cdn.test/p1.jpg",
		"https://cdn.test/p2.jpg",
		"https://cdn.test/p3.jpg",
	}, st.Draft.Images)
}

func TestUploadFailureKeepsState(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.advanceToPhoto(ctx)

	h.uploader.fail = true
	r, err := h.eng.HandlePhoto(ctx, Photo{FileID: "p1"})
	require.NoError(t, err)
	require.Contains(t, r.Text, "Не удалось загрузить")

	st := h.state()
	require.Equal(t, StepAwaitPhoto, st.Step.Kind)
	require.Empty(t, st.Draft.Images)
}

func TestCommitFailureKeepsStateForRetry(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.advanceToPhoto(ctx)
	h.silent(h.eng.HandlePhoto(ctx, Photo{FileID: "p1"}))
	h.must(h.eng.ChooseDiscount(ctx, false))

	h.catalog.createErr = errors.New("db down")
	r, err := h.eng.ChoosePreorder(ctx, false)
	require.NoError(t, err)
	require.Contains(t, r.Text, "Ошибка базы данных")
	require.Equal(t, StepAskPreorder, h.state().Step.Kind)

	// Retry once the database is back.
	h.catalog.createErr = nil
	h.must(h.eng.ChoosePreorder(ctx, false))
	require.Len(t, h.catalog.created, 1)
}

func TestEditFieldCommitsDirectly(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.must(h.eng.StartEdit(ctx, 7, FieldPrice))
	r, err := h.eng.HandleText(ctx, "99.5")
	require.NoError(t, err)
	require.Contains(t, r.Text, "Изменения сохранены")

	require.Len(t, h.catalog.updates[7], 1)
	patch := h.catalog.updates[7][0]
	require.NotNil(t, patch.Price)
	require.Equal(t, 99.5, *patch.Price)

	require.Nil(t, h.state())
}

func TestEditDiscountZeroClearsOldPrice(t *testing.T) {
	h := newHarness(t, time.Hour)
	ctx := context.Background()

	h.must(h.eng.StartEdit(ctx, 7, FieldDiscount))
	_, err := h.eng.HandleText(ctx, "0")
	require.NoError(t, err)

	require.Len(t, h.catalog.updates[7], 1)
	require.True(t, h.catalog.updates[7][0].ClearOldPrice)
	require.Nil(t, h.catalog.updates[7][0].OldPrice)
}

func TestEditPhotoGroupReplacesImages(t *testing.T) {
	h := newHarness(t, 25*time.Millisecond)
	ctx := context.Background()

	h.must(h.eng.StartEdit(ctx, 7, FieldPhoto))
	for _, id := range []string{"n1", "n2"} {
		h.silent(h.eng.HandlePhoto(ctx, Photo{FileID: id, GroupID: "album-2"}))
	}

	require.Eventually(t, func() bool { return h.rec.count() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.Len(t, h.catalog.updates[7], 1)
	require.Equal(t, []string{
		"https://cdn.test/n1.jpg",
		"https://cdn.test/n2.jpg",
	}, h.catalog.updates[7][0].Images)

	require.Nil(t, h.state())
}

func TestCancelledBatchIsDiscarded(t *testing.T) {
	h := newHarness(t, 40*time.Millisecond)
	ctx := context.Background()

	h.advanceToPhoto(ctx)
	h.silent(h.eng.HandlePhoto(ctx, Photo{FileID: "p1", GroupID: "album-5"}))

	// Cancel before the quiet period elapses: the flush must find no
	// state and drop the batch silently.
	require.NoError(t, h.eng.Cancel(ctx))

	time.Sleep(120 * time.Millisecond)
	require.Zero(t, h.rec.count())
	require.Nil(t, h.state())
}
