package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/iancoleman/strcase"
)

// Classification is the sensitivity tag the store attaches to a document.
type Classification string

const (
	ClassificationPrivate    Classification = "PRIVATE"
	ClassificationRestricted Classification = "RESTRICTED"
	ClassificationPublic     Classification = "PUBLIC"
)

// UploadClassification is sent with every upload. It is not caller
// configurable.
const UploadClassification = ClassificationRestricted

func (c Classification) String() string {
	return string(c)
}

// Valid returns true for the classifications the store understands.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationPrivate, ClassificationRestricted, ClassificationPublic:
		return true
	}
	return false
}

// Status is the HTTP status outcome of a single file upload.
//
// It encodes as a number. Decoding also accepts numeric strings and status
// names such as "OK" or "SERVICE_UNAVAILABLE".
type Status int

// Name returns the status in upper snake case, e.g. "SERVICE_UNAVAILABLE".
func (s Status) Name() string {
	text := http.StatusText(int(s))
	if text == "" {
		return strconv.Itoa(int(s))
	}
	return statusName(text)
}

func (s Status) String() string {
	return fmt.Sprintf("%d %s", int(s), http.StatusText(int(s)))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var code int
	if err := json.Unmarshal(data, &code); err == nil {
		*s = Status(code)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("status must be a number or string: %w", err)
	}
	if code, err := strconv.Atoi(name); err == nil {
		*s = Status(code)
		return nil
	}
	for code := 100; code < 600; code++ {
		text := http.StatusText(code)
		if text != "" && statusName(text) == statusName(name) {
			*s = Status(code)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", name)
}

func statusName(text string) string {
	return strcase.ToScreamingSnake(text)
}

// FileUploadResult is the outcome of uploading one file. Timestamps are kept
// as the literal strings sent by the store.
type FileUploadResult struct {
	FileURL        string `json:"fileUrl"`
	FileName       string `json:"fileName"`
	CreatedBy      string `json:"createdBy"`
	CreatedOn      string `json:"createdOn"`
	LastModifiedBy string `json:"lastModifiedBy"`
	ModifiedOn     string `json:"modifiedOn"`
	MimeType       string `json:"mimeType"`
	Status         Status `json:"status"`
}

// CreatedAt parses CreatedOn.
func (r FileUploadResult) CreatedAt() (time.Time, error) {
	return parseTimestamp(r.CreatedOn)
}

// ModifiedAt parses ModifiedOn.
func (r FileUploadResult) ModifiedAt() (time.Time, error) {
	return parseTimestamp(r.ModifiedOn)
}

// DocumentID returns the document UUID at the end of FileURL.
func (r FileUploadResult) DocumentID() (uuid.UUID, error) {
	return idFromURL(r.FileURL)
}

// UploadResponse is the ordered list of per-file results of one upload.
//
// It decodes from either a JSON array of FileUploadResult or the store's HAL
// envelope ({"_embedded": {"documents": [...]}}), and always encodes as an
// array.
type UploadResponse struct {
	Results []FileUploadResult
}

func (r UploadResponse) MarshalJSON() ([]byte, error) {
	if r.Results == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Results)
}

func (r *UploadResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		elems, err := nonNullElements(data)
		if err != nil {
			return err
		}
		results := make([]FileUploadResult, len(elems))
		for i, elem := range elems {
			if err := json.Unmarshal(elem, &results[i]); err != nil {
				return err
			}
		}
		r.Results = results
		return nil
	}

	var envelope struct {
		Embedded *struct {
			Documents json.RawMessage `json:"documents"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Embedded == nil || envelope.Embedded.Documents == nil {
		return errors.New("expected a result array or _embedded.documents")
	}
	elems, err := nonNullElements(envelope.Embedded.Documents)
	if err != nil {
		return fmt.Errorf("_embedded.documents: %w", err)
	}

	results := make([]FileUploadResult, 0, len(elems))
	for _, elem := range elems {
		var doc Document
		if err := json.Unmarshal(elem, &doc); err != nil {
			return err
		}
		results = append(results, FileUploadResult{
			FileURL:        doc.SelfURL(),
			FileName:       doc.OriginalDocumentName,
			CreatedBy:      doc.CreatedBy,
			CreatedOn:      doc.CreatedOn,
			LastModifiedBy: doc.LastModifiedBy,
			ModifiedOn:     doc.ModifiedOn,
			MimeType:       doc.MimeType,
			Status:         http.StatusOK,
		})
	}
	r.Results = results
	return nil
}

// nonNullElements splits a JSON array into its elements. A null element has
// no result to report and is rejected.
func nonNullElements(data []byte) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, err
	}
	if elems == nil {
		return nil, errors.New("expected an array, got null")
	}
	for i, elem := range elems {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			return nil, fmt.Errorf("result %d is null", i)
		}
	}
	return elems, nil
}

// Link is a HAL link.
type Link struct {
	Href string `json:"href"`
}

// Document is a metadata record returned by the store. The well known fields
// are decoded for convenience; the full body is kept in Raw and re-encoded
// unchanged.
type Document struct {
	OriginalDocumentName string          `json:"originalDocumentName,omitempty"`
	MimeType             string          `json:"mimeType,omitempty"`
	Size                 int64           `json:"size,omitempty"`
	Classification       Classification  `json:"classification,omitempty"`
	CreatedBy            string          `json:"createdBy,omitempty"`
	CreatedOn            string          `json:"createdOn,omitempty"`
	LastModifiedBy       string          `json:"lastModifiedBy,omitempty"`
	ModifiedOn           string          `json:"modifiedOn,omitempty"`
	Links                map[string]Link `json:"_links,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	type document Document
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*d = Document(doc)
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	if len(d.Raw) > 0 {
		return d.Raw, nil
	}
	type document Document
	return json.Marshal(document(d))
}

// Field returns a top-level field of the raw record.
func (d *Document) Field(name string) (json.RawMessage, bool) {
	if len(d.Raw) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(d.Raw, &fields); err != nil {
		return nil, false
	}
	v, ok := fields[name]
	return v, ok
}

// SelfURL returns the document's own URL.
func (d *Document) SelfURL() string {
	return d.Links["self"].Href
}

// BinaryURL returns the URL of the document's content.
func (d *Document) BinaryURL() string {
	return d.Links["binary"].Href
}

// ID returns the document UUID from the self link.
func (d *Document) ID() (uuid.UUID, error) {
	return idFromURL(d.SelfURL())
}

// CreatedAt parses CreatedOn.
func (d *Document) CreatedAt() (time.Time, error) {
	return parseTimestamp(d.CreatedOn)
}

// ModifiedAt parses ModifiedOn.
func (d *Document) ModifiedAt() (time.Time, error) {
	return parseTimestamp(d.ModifiedOn)
}

// HealthStatus is the payload of the gateway's health endpoint.
type HealthStatus struct {
	Status  string                     `json:"status"`
	Details map[string]json.RawMessage `json:"details,omitempty"`
}

// IsUp returns true when the gateway reports itself as up.
func (h *HealthStatus) IsUp() bool {
	return strings.EqualFold(h.Status, "UP")
}

// MetadataPath returns the metadata path of the document with the given ID,
// relative to the metadata gateway.
func MetadataPath(id uuid.UUID) string {
	return "documents/" + id.String()
}

// ParseID parses a document UUID.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid document ID %q: %w", ErrInvalidInput, s, err)
	}
	return id, nil
}

func idFromURL(u string) (uuid.UUID, error) {
	if u == "" {
		return uuid.Nil, errors.New("no document URL")
	}
	return uuid.Parse(path.Base(strings.TrimRight(u, "/")))
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	return dateparse.ParseAny(s)
}
