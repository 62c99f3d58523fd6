package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/config"
	"github.com/JJCAPPE/inventario-cappellettoshop/internal/metrics"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

const serviceName = "firestore"

// Document is a Firestore document in REST form
type Document struct {
	Name       string           `json:"name,omitempty"`
	Fields     map[string]Value `json:"fields"`
	CreateTime string           `json:"createTime,omitempty"`
	UpdateTime string           `json:"updateTime,omitempty"`
}

// ID returns the last segment of the document name
func (d Document) ID() string {
	if i := strings.LastIndex(d.Name, "/"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// Client talks to the Firestore REST API with a web API key
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// NewClient creates a Firestore REST client for the (default) database of the project
func NewClient(cfg config.FirebaseConfig, logger *zap.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://firestore.googleapis.com/v1"
	}
	return &Client{
		baseURL:    fmt.Sprintf("%s/projects/%s/databases/(default)/documents", baseURL, cfg.ProjectID),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		metrics:    m,
	}
}

// CreateDocument adds a document with a generated id and returns that id
func (c *Client) CreateDocument(ctx context.Context, collection string, fields map[string]Value) (string, error) {
	var created Document
	err := c.do(ctx, "create_document", http.MethodPost, "/"+collection, nil, Document{Fields: fields}, &created)
	if err != nil {
		return "", err
	}
	if created.Name == "" {
		return "", &apperrors.ParseError{What: "created document", Err: fmt.Errorf("response has no name")}
	}
	return created.ID(), nil
}

// PatchDocument updates the masked fields of an existing document
func (c *Client) PatchDocument(ctx context.Context, collection, id string, fields map[string]Value, mask []string) (*Document, error) {
	query := url.Values{}
	for _, path := range mask {
		query.Add("updateMask.fieldPaths", path)
	}
	query.Set("currentDocument.exists", "true")

	var doc Document
	if err := c.do(ctx, "patch_document", http.MethodPatch, "/"+collection+"/"+url.PathEscape(id), query, Document{Fields: fields}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// RunQuery executes a structured query and returns the matching documents
func (c *Client) RunQuery(ctx context.Context, q StructuredQuery) ([]Document, error) {
	body := map[string]interface{}{"structuredQuery": q}

	var results []struct {
		Document *Document `json:"document"`
		ReadTime string    `json:"readTime"`
	}
	if err := c.do(ctx, "run_query", http.MethodPost, ":runQuery", nil, body, &results); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		// entries without a document only carry a read time
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload, out interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.apiKey)
	target := c.baseURL + path + "?" + query.Encode()

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordRemoteRequest(serviceName, op, 0, time.Since(start))
		c.logger.Warn("Firestore request failed", zap.String("operation", op), zap.Error(err))
		return apperrors.Classify(serviceName, op, err)
	}
	defer resp.Body.Close()
	c.metrics.RecordRemoteRequest(serviceName, op, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Classify(serviceName, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperrors.RemoteRejection{
			Service:    serviceName,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       string(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.ParseError{What: "firestore " + op + " response", Err: err}
	}
	return nil
}
