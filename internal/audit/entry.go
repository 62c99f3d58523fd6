package audit

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JJCAPPE/inventario-cappellettoshop/internal/firestore"
	apperrors "github.com/JJCAPPE/inventario-cappellettoshop/pkg/errors"
)

// RequestType is the kind of change an audit record describes. The values
// are the ones already stored in the logs collection.
type RequestType string

const (
	RequestAdjustment RequestType = "Rettifica"
	RequestUndo       RequestType = "Annullamento"
	RequestTransfer   RequestType = "Trasferimento"
)

// LogData is the nested payload of an audit record
type LogData struct {
	ProductID       string          `json:"product_id"`
	Variant         string          `json:"variant"`
	Location        string          `json:"location"`
	InventoryItemID string          `json:"inventory_item_id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	Delta           int             `json:"delta"`
	Images          []string        `json:"images"`
}

// LogEntry is one audit record
type LogEntry struct {
	ID          string      `json:"id,omitempty"`
	RequestType RequestType `json:"request_type"`
	Data        LogData     `json:"data"`
	Timestamp   time.Time   `json:"timestamp"`
}

// stored field names
const (
	fieldRequestType     = "requestType"
	fieldTimestamp       = "timestamp"
	fieldData            = "data"
	fieldProductID       = "id"
	fieldVariant         = "variant"
	fieldLocation        = "negozio"
	fieldInventoryItemID = "inventory_item_id"
	fieldName            = "nome"
	fieldPrice           = "prezzo"
	fieldDelta           = "rettifica"
	fieldImages          = "images"
)

// toFields maps an entry onto its stored document shape. Timestamps are kept
// as RFC 3339 strings so day ranges can be queried lexically.
func (e LogEntry) toFields() map[string]firestore.Value {
	images := e.Data.Images
	if images == nil {
		images = []string{}
	}
	return map[string]firestore.Value{
		fieldRequestType: firestore.String(string(e.RequestType)),
		fieldTimestamp:   firestore.String(e.Timestamp.Format(time.RFC3339)),
		fieldData: firestore.Map(map[string]firestore.Value{
			fieldProductID:       firestore.String(e.Data.ProductID),
			fieldVariant:         firestore.String(e.Data.Variant),
			fieldLocation:        firestore.String(e.Data.Location),
			fieldInventoryItemID: firestore.String(e.Data.InventoryItemID),
			fieldName:            firestore.String(e.Data.Name),
			fieldPrice:           firestore.String(e.Data.Price.StringFixed(2)),
			fieldDelta:           firestore.Integer(int64(e.Data.Delta)),
			fieldImages:          firestore.Strings(images),
		}),
	}
}

// entryFromDocument decodes a stored record. Older records store
// inventory_item_id as an integer and prezzo as a number; both are accepted.
func entryFromDocument(doc firestore.Document) (LogEntry, error) {
	fail := func(format string, args ...interface{}) (LogEntry, error) {
		return LogEntry{}, &apperrors.ParseError{What: "log " + doc.ID(), Err: fmt.Errorf(format, args...)}
	}

	entry := LogEntry{ID: doc.ID()}

	requestType, ok := doc.Fields[fieldRequestType].AsString()
	if !ok {
		return fail("missing %s", fieldRequestType)
	}
	entry.RequestType = RequestType(requestType)

	ts, err := timestampField(doc.Fields[fieldTimestamp])
	if err != nil {
		return fail("%s: %v", fieldTimestamp, err)
	}
	entry.Timestamp = ts

	data, ok := doc.Fields[fieldData].AsMap()
	if !ok {
		return fail("missing %s", fieldData)
	}

	if entry.Data.ProductID, ok = data[fieldProductID].AsString(); !ok {
		return fail("missing data.%s", fieldProductID)
	}
	if entry.Data.Location, ok = data[fieldLocation].AsString(); !ok {
		return fail("missing data.%s", fieldLocation)
	}
	entry.Data.Variant, _ = data[fieldVariant].AsString()
	entry.Data.Name, _ = data[fieldName].AsString()

	switch v := data[fieldInventoryItemID]; v.Kind() {
	case firestore.KindString:
		entry.Data.InventoryItemID, _ = v.AsString()
	case firestore.KindInteger:
		n, _ := v.AsInteger()
		entry.Data.InventoryItemID = strconv.FormatInt(n, 10)
	}

	delta, ok := data[fieldDelta].AsInteger()
	if !ok {
		return fail("missing data.%s", fieldDelta)
	}
	entry.Data.Delta = int(delta)

	switch v := data[fieldPrice]; v.Kind() {
	case firestore.KindString:
		s, _ := v.AsString()
		if s != "" {
			price, err := decimal.NewFromString(s)
			if err != nil {
				return fail("data.%s: %v", fieldPrice, err)
			}
			entry.Data.Price = price
		}
	case firestore.KindDouble:
		f, _ := v.AsDouble()
		entry.Data.Price = decimal.NewFromFloat(f)
	case firestore.KindInteger:
		n, _ := v.AsInteger()
		entry.Data.Price = decimal.NewFromInt(n)
	}

	entry.Data.Images = []string{}
	if images, ok := data[fieldImages].AsArray(); ok {
		for _, img := range images {
			if s, ok := img.AsString(); ok {
				entry.Data.Images = append(entry.Data.Images, s)
			}
		}
	}

	return entry, nil
}

func timestampField(v firestore.Value) (time.Time, error) {
	if t, ok := v.AsTimestamp(); ok {
		return t, nil
	}
	s, ok := v.AsString()
	if !ok {
		return time.Time{}, fmt.Errorf("missing")
	}
	return time.Parse(time.RFC3339, s)
}
