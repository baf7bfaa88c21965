package document

import (
	"errors"
	"fmt"
	"mime"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var errNoContent = errors.New("file has no content source")

// File is an in-memory file to upload. Content is called once per upload to
// obtain the payload and may fail.
type File struct {
	Name        string                 `json:"name"`
	ContentType string                 `json:"contentType"`
	Content     func() ([]byte, error) `json:"-"`
}

// NewFile returns a File backed by data.
func NewFile(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Content: func() ([]byte, error) {
			return data, nil
		},
	}
}

// FileFromPath returns a File whose content is read from disk when the upload
// is built.
func FileFromPath(path, name, contentType string) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Content: func() ([]byte, error) {
			return os.ReadFile(path)
		},
	}
}

// Validate checks that the file carries a usable content type.
func (f File) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.ContentType,
			validation.Required,
			validation.By(mediaType),
		),
	)
}

// Bytes returns the file's payload.
func (f File) Bytes() ([]byte, error) {
	if f.Content == nil {
		return nil, errNoContent
	}
	return f.Content()
}

func mediaType(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, _, err := mime.ParseMediaType(s); err != nil {
		return fmt.Errorf("must be a valid media type")
	}
	return nil
}

// UploadRequest groups the arguments of an upload for validation.
type UploadRequest struct {
	AuthToken        string `json:"authToken"`
	ServiceAuthToken string `json:"serviceAuthToken"`
	UserID           string `json:"userId"`
	Files            []File `json:"files"`
}

// Validate checks the request without performing any I/O.
func (r UploadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AuthToken, validation.Required),
		validation.Field(&r.ServiceAuthToken, validation.Required),
		validation.Field(&r.Files, validation.Required),
	)
}
