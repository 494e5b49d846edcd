package jobs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pysugar/careertracker/internal/api"
)

// DocType labels an uploaded file. Values are the backend's display strings.
type DocType string

const (
	DocResume      DocType = "RESUME"
	DocCoverLetter DocType = "COVER LETTER"
	DocColdEmail   DocType = "COLD EMAIL"
	DocOthers      DocType = "OTHERS"
)

// DocTypes lists the accepted document types.
var DocTypes = []DocType{DocResume, DocCoverLetter, DocColdEmail, DocOthers}

// ParseDocType accepts a type name in any case, with _ or space separators.
func ParseDocType(s string) (DocType, error) {
	want := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", " "))
	if want == "" {
		return DocResume, nil
	}
	for _, t := range DocTypes {
		if string(t) == want {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown document type %q", s)
}

// Document is a file attached to an application.
type Document struct {
	ID         int64     `json:"id"`
	Job        int64     `json:"job"`
	File       string    `json:"file"`
	DocTypes   DocType   `json:"doc_types"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Name returns the file's base name.
func (d Document) Name() string {
	return filepath.Base(d.File)
}

// Upload is a document to attach to a job.
type Upload struct {
	Job      int64  `json:"job" validate:"gt=0"`
	FileName string `json:"file" validate:"required"`
	DocType  DocType
	Content  io.Reader
}

// Documents lists uploaded files. A positive jobID keeps only that job's files.
func (s *Service) Documents(ctx context.Context, jobID int64) ([]Document, error) {
	resp, err := s.api.Call(ctx, http.MethodGet, "jobs/documents/", nil)
	all, err := result[[]Document](resp, err, "Failed to load documents.")
	if err != nil || jobID <= 0 {
		return all, err
	}
	var out []Document
	for _, d := range all {
		if d.Job == jobID {
			out = append(out, d)
		}
	}
	return out, nil
}

// UploadDocument sends u as multipart form data.
func (s *Service) UploadDocument(ctx context.Context, u Upload) (*Document, error) {
	if err := Validate(u); err != nil {
		return nil, err
	}
	docType, err := ParseDocType(string(u.DocType))
	if err != nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "doc_types", Message: "Document type is invalid."}}}
	}
	u.DocType = docType
	if u.Content == nil {
		return nil, &ValidationError{Fields: []FieldError{{Field: "file", Message: "File is required."}}}
	}

	body, contentType, err := encodeUpload(u)
	if err != nil {
		return nil, err
	}
	resp, err := s.api.Do(ctx, api.Request{
		Method:      http.MethodPost,
		Path:        "jobs/documents/",
		Body:        body,
		ContentType: contentType,
	})
	doc, err := result[Document](resp, err, "Failed to upload file. Please try again.")
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Service) DeleteDocument(ctx context.Context, id int64) error {
	return s.remove(ctx, fmt.Sprintf("jobs/documents/%d/", id), "Failed to delete document.")
}

// encodeUpload buffers the form so a retried call can replay it.
func encodeUpload(u Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(u.FileName))
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, u.Content); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if err := w.WriteField("doc_types", string(u.DocType)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("job", strconv.FormatInt(u.Job, 10)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
