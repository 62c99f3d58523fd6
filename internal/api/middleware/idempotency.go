package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	// KeepOnServerError marks a 5xx response that must still be replayed, such
	// as a transfer whose rollback failed.
	KeepOnServerError = "idempotency_keep_on_error"
	// ReleaseKey marks a response after which the same key may be retried,
	// such as a transfer that was rolled back.
	ReleaseKey = "idempotency_release"
)

// IdempotencyStore remembers the responses of keyed requests for a while
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]idempotentResponse
	now     func() time.Time
}

type idempotentResponse struct {
	requestHash string
	status      int
	contentType string
	body        []byte
	pending     bool
	expires     time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, entries: map[string]idempotentResponse{}, now: time.Now}
}

// reserve claims a key. It returns the stored entry when the key is known.
func (s *IdempotencyStore) reserve(key, hash string) (idempotentResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expires) {
			delete(s.entries, k)
		}
	}
	if e, ok := s.entries[key]; ok {
		return e, true
	}
	s.entries[key] = idempotentResponse{requestHash: hash, pending: true, expires: now.Add(s.ttl)}
	return idempotentResponse{}, false
}

func (s *IdempotencyStore) complete(key string, resp idempotentResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp.expires = s.now().Add(s.ttl)
	s.entries[key] = resp
}

func (s *IdempotencyStore) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response of a stock mutation sent
// again with the same Idempotency-Key, so a retried transfer never moves
// stock twice. Server errors are not stored and may be retried.
func IdempotencyMiddleware(store *IdempotencyStore, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost && c.Request.Method != http.MethodPut && c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
		if idempotencyKey == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			logger.Error("Failed to read request body for idempotency", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process request"})
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

		hash := sha256.Sum256(append([]byte(c.Request.URL.Path+"\n"), body...))
		requestHash := hex.EncodeToString(hash[:])

		if existing, ok := store.reserve(idempotencyKey, requestHash); ok {
			switch {
			case existing.requestHash != requestHash:
				c.JSON(http.StatusConflict, gin.H{
					"error": "idempotency key conflict: same key used with different payload",
				})
			case existing.pending:
				c.JSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is still in progress"})
			default:
				logger.Info("Replaying idempotent response", zap.String("key", idempotencyKey))
				c.Header("Idempotent-Replayed", "true")
				c.Data(existing.status, existing.contentType, existing.body)
			}
			c.Abort()
			return
		}

		writer := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		status := writer.Status()
		if c.GetBool(ReleaseKey) || (status >= http.StatusInternalServerError && !c.GetBool(KeepOnServerError)) {
			store.release(idempotencyKey)
			return
		}
		store.complete(idempotencyKey, idempotentResponse{
			requestHash: requestHash,
			status:      status,
			contentType: writer.Header().Get("Content-Type"),
			body:        writer.body.Bytes(),
		})
	}
}
