package pay

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"vendia/db"
	"vendia/models"
	"vendia/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RecordStore persists idempotency records. Insert reports a reused key as
// ErrDuplicateRecord so the middleware stays storage agnostic.
type RecordStore interface {
	Insert(ctx context.Context, rec models.IdempotencyRecord) error
	SetResponse(ctx context.Context, key string, response map[string]interface{}) error
	Get(ctx context.Context, key string) (*models.IdempotencyRecord, error)
}

var ErrDuplicateRecord = errors.New("idempotency key already recorded")

// InitIdempotencyIndexes creates the necessary indexes (unique key + TTL).
func InitIdempotencyIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.M{"key": 1},
			Options: options.Index().SetUnique(true).SetName("unique_key"),
		},
		{
			Keys:    bson.M{"expires_at": 1},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
	}
	_, err := db.IdempotencyCollection.Indexes().CreateMany(ctx, idxs)
	return err
}

type mongoRecordStore struct{}

func (mongoRecordStore) Insert(ctx context.Context, rec models.IdempotencyRecord) error {
	_, err := db.IdempotencyCollection.InsertOne(ctx, rec)
	if isDuplicateKeyError(err) {
		return ErrDuplicateRecord
	}
	return err
}

func (mongoRecordStore) SetResponse(ctx context.Context, key string, response map[string]interface{}) error {
	_, err := db.IdempotencyCollection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"response": response}},
	)
	return err
}

func (mongoRecordStore) Get(ctx context.Context, key string) (*models.IdempotencyRecord, error) {
	var rec models.IdempotencyRecord
	if err := db.IdempotencyCollection.FindOne(ctx, bson.M{"key": key}).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func computeRequestHash(r *http.Request, bodyBytes []byte, userID string) string {
	h := sha256.New()
	h.Write([]byte(r.Method + ":" + r.URL.Path + ":" + userID + ":"))
	h.Write(bodyBytes)
	return hex.EncodeToString(h.Sum(nil))
}

// CaptureResponseWriter wraps http.ResponseWriter to capture status and body.
type CaptureResponseWriter struct {
	w           http.ResponseWriter
	statusCode  int
	buf         bytes.Buffer
	wroteHeader bool
}

func NewCaptureResponseWriter(w http.ResponseWriter) *CaptureResponseWriter {
	return &CaptureResponseWriter{w: w, statusCode: http.StatusOK}
}

func (c *CaptureResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *CaptureResponseWriter) WriteHeader(statusCode int) {
	if !c.wroteHeader {
		c.statusCode = statusCode
		c.w.WriteHeader(statusCode)
		c.wroteHeader = true
	}
}

func (c *CaptureResponseWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.w.Write(b)
}

func (c *CaptureResponseWriter) Status() int {
	return c.statusCode
}

func (c *CaptureResponseWriter) BodyBytes() []byte {
	return c.buf.Bytes()
}

// helper to detect duplicate key errors from Mongo insert
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if we, ok := err.(mongo.WriteException); ok {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// cachedStatus reads the stored response status. Numbers come back as int
// from memory but as int32/int64 after a BSON round trip.
func cachedStatus(response map[string]interface{}) int {
	switch v := response["status"].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return http.StatusOK
}

// Idempotency is the Mongo-backed middleware wired on mutating routes.
var Idempotency = IdempotencyMiddleware(mongoRecordStore{})

// IdempotencyMiddleware ensures safe replay behavior for mutating endpoints
// when the client provides an Idempotency-Key. Behavior:
// - If no header: pass-through.
// - If header present: compute request hash and try to insert a placeholder record.
//   - If insert succeeds: let handler run; capture response and update record.
//   - If insert reports a duplicate key: fetch existing record:
//   - if request hash mismatches -> 409 Conflict
//   - if response available -> return cached response
//   - if response not available (in flight) -> let handler run; the
//     order/intent flows are idempotent at the store level
func IdempotencyMiddleware(records RecordStore) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next(w, r, ps)
				return
			}

			userID := utils.GetUserIDFromRequest(r)

			// Limit body size to 1 MB to prevent memory issues
			bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			reqHash := computeRequestHash(r, bodyBytes, userID)
			now := time.Now()
			rec := models.IdempotencyRecord{
				Key:         key,
				Method:      r.Method,
				Path:        r.URL.Path,
				UserID:      userID,
				RequestHash: reqHash,
				CreatedAt:   now,
				ExpiresAt:   now.Add(24 * time.Hour),
			}

			ctx := r.Context()
			err = records.Insert(ctx, rec)
			if err == nil {
				// First time: capture response
				crw := NewCaptureResponseWriter(w)
				next(crw, r, ps)

				var parsed interface{}
				if err := json.Unmarshal(crw.BodyBytes(), &parsed); err != nil {
					parsed = string(crw.BodyBytes())
				}

				responseObj := map[string]interface{}{
					"status": crw.Status(),
					"body":   parsed,
				}

				_ = records.SetResponse(ctx, key, responseObj)
				return
			}

			if !errors.Is(err, ErrDuplicateRecord) {
				http.Error(w, "idempotency lookup error", http.StatusInternalServerError)
				return
			}

			existing, err := records.Get(ctx, key)
			if err != nil {
				http.Error(w, "idempotency lookup error", http.StatusInternalServerError)
				return
			}

			// Request hash mismatch -> conflict
			if existing.RequestHash != reqHash {
				http.Error(w, "idempotency-key conflict", http.StatusConflict)
				return
			}

			// Return cached response if available
			if existing.Response != nil {
				utils.RespondWithJSON(w, cachedStatus(existing.Response), existing.Response["body"])
				return
			}

			// In-flight request, let handler run
			next(w, r, ps)
		}
	}
}
