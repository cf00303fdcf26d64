package pay

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"vendia/models"
	"vendia/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRecordStore implements RecordStore in memory.
type memRecordStore struct {
	mu      sync.Mutex
	records map[string]*models.IdempotencyRecord
}

func newMemRecordStore() *memRecordStore {
	return &memRecordStore{records: make(map[string]*models.IdempotencyRecord)}
}

func (m *memRecordStore) Insert(_ context.Context, rec models.IdempotencyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[rec.Key]; ok {
		return ErrDuplicateRecord
	}
	copied := rec
	m.records[rec.Key] = &copied
	return nil
}

func (m *memRecordStore) SetResponse(_ context.Context, key string, response map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[key]; ok {
		rec.Response = response
	}
	return nil
}

func (m *memRecordStore) Get(_ context.Context, key string) (*models.IdempotencyRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *rec
	return &copied, nil
}

// countingHandler records invocations and answers a fixed JSON body.
func countingHandler(calls *int) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		*calls++
		utils.RespondWithJSON(w, http.StatusCreated, utils.M{"orderId": "o1"})
	}
}

func postOrders(body string, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte(body)))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyPassThroughWithoutKey(t *testing.T) {
	store := newMemRecordStore()
	var calls int
	handler := IdempotencyMiddleware(store)(countingHandler(&calls))

	rec := httptest.NewRecorder()
	handler(rec, postOrders(`{}`, ""), nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, store.records)
}

func TestIdempotencyCapturesFirstResponse(t *testing.T) {
	store := newMemRecordStore()
	var calls int
	handler := IdempotencyMiddleware(store)(countingHandler(&calls))

	rec := httptest.NewRecorder()
	handler(rec, postOrders(`{}`, "key-1"), nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, rec.Code)

	stored, err := store.Get(context.Background(), "key-1")
	require.NoError(t, err)
	require.NotNil(t, stored.Response)
	assert.Equal(t, http.StatusCreated, cachedStatus(stored.Response))
	body, ok := stored.Response["body"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "o1", body["orderId"])
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	store := newMemRecordStore()
	var calls int
	handler := IdempotencyMiddleware(store)(countingHandler(&calls))

	first := httptest.NewRecorder()
	handler(first, postOrders(`{}`, "key-1"), nil)
	require.Equal(t, 1, calls)

	second := httptest.NewRecorder()
	handler(second, postOrders(`{}`, "key-1"), nil)

	// the handler did not run again; the cached response was replayed
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, `{"orderId":"o1"}`, second.Body.String())
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	store := newMemRecordStore()
	var calls int
	handler := IdempotencyMiddleware(store)(countingHandler(&calls))

	first := httptest.NewRecorder()
	handler(first, postOrders(`{}`, "key-1"), nil)
	require.Equal(t, 1, calls)

	second := httptest.NewRecorder()
	handler(second, postOrders(`{"different":true}`, "key-1"), nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestIdempotencyInFlightRequestFallsThrough(t *testing.T) {
	store := newMemRecordStore()
	var calls int
	handler := IdempotencyMiddleware(store)(countingHandler(&calls))

	// placeholder exists but carries no response yet
	req := postOrders(`{}`, "key-1")
	body := []byte(`{}`)
	require.NoError(t, store.Insert(context.Background(), models.IdempotencyRecord{
		Key:         "key-1",
		Method:      http.MethodPost,
		Path:        "/api/v1/orders",
		RequestHash: computeRequestHash(req, body, ""),
	}))

	rec := httptest.NewRecorder()
	handler(rec, postOrders(`{}`, "key-1"), nil)

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCachedStatusNumericWidths(t *testing.T) {
	// Mongo decodes stored numbers as int32/int64, not the int that was
	// written; every width must replay the real status.
	assert.Equal(t, 201, cachedStatus(map[string]interface{}{"status": 201}))
	assert.Equal(t, 201, cachedStatus(map[string]interface{}{"status": int32(201)}))
	assert.Equal(t, 201, cachedStatus(map[string]interface{}{"status": int64(201)}))
	assert.Equal(t, 201, cachedStatus(map[string]interface{}{"status": float64(201)}))
	assert.Equal(t, http.StatusOK, cachedStatus(map[string]interface{}{}))
}
