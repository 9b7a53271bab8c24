package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/teleshop/internal/bot"
)

type fakeProcessor struct {
	updates []tele.Update
	panics  bool
}

func (f *fakeProcessor) ProcessUpdate(u tele.Update) {
	if f.panics {
		panic("handler blew up")
	}
	f.updates = append(f.updates, u)
}

type fakePlacer struct {
	last bot.OrderRequest
	err  error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, req bot.OrderRequest) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.last = req
	return 77, nil
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	s := New(":0", &fakeProcessor{}, &fakePlacer{})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/bot", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Bot is active", decodeBody(t, rr)["message"])
}

func TestUpdateEndpointProcessesAndAcks(t *testing.T) {
	proc := &fakeProcessor{}
	s := New(":0", proc, &fakePlacer{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bot",
		strings.NewReader(`{"update_id": 101, "message": {"message_id": 5, "text": "hi"}}`))
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, true, decodeBody(t, rr)["ok"])
	require.Len(t, proc.updates, 1)
	require.Equal(t, 101, proc.updates[0].ID)
}

func TestUpdateEndpointConvertsPanicTo500(t *testing.T) {
	s := New(":0", &fakeProcessor{panics: true}, &fakePlacer{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bot", strings.NewReader(`{"update_id": 1}`))
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, false, decodeBody(t, rr)["ok"])
}

func TestUpdateEndpointRejectsBadJSON(t *testing.T) {
	s := New(":0", &fakeProcessor{}, &fakePlacer{})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/bot", strings.NewReader("not json"))
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, false, decodeBody(t, rr)["ok"])
}

func TestOrderIntake(t *testing.T) {
	placer := &fakePlacer{}
	s := New(":0", &fakeProcessor{}, placer)

	payload := `{
		"items": [{"id": 3, "name": "Hoodie", "price": 45, "quantity": 2}],
		"total": 90,
		"user": {"id": 555, "first_name": "Ann"}
	}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(payload))
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	require.Equal(t, true, body["ok"])
	require.Equal(t, float64(77), body["orderId"])

	require.Equal(t, int64(555), placer.last.UserID)
	require.Len(t, placer.last.Items, 1)
	require.Equal(t, int64(3), placer.last.Items[0].ProductID)
	require.Equal(t, 90.0, placer.last.Total)
}

func TestOrderIntakeValidation(t *testing.T) {
	s := New(":0", &fakeProcessor{}, &fakePlacer{})

	for _, payload := range []string{
		"not json",
		`{"items": [], "total": 0, "user": {"id": 1}}`,
		`{"items": [{"id": 1, "quantity": 1}], "total": 10, "user": {}}`,
	} {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(payload))
		s.Handler().ServeHTTP(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code, "payload=%s", payload)
	}
}

func TestOrderIntakePersistenceFailure(t *testing.T) {
	s := New(":0", &fakeProcessor{}, &fakePlacer{err: errors.New("db down")})

	payload := `{"items": [{"id": 1, "quantity": 1}], "total": 10, "user": {"id": 5}}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(payload))
	s.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, false, decodeBody(t, rr)["ok"])
}
