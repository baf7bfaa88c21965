package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/hermes-dmclient/pkg/document"
)

func newTestUploadClient(t *testing.T, baseURL string) *UploadClient {
	t.Helper()
	client, err := NewUploadClient(&Config{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Logger:  hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return client
}

func pdfFile() document.File {
	return document.NewFile("JDP.pdf", "application/pdf", []byte("This is a test pdf file"))
}

func TestUploadClient_Upload(t *testing.T) {
	fixture, err := os.ReadFile("../../testdata/upload_response_hal.json")
	require.NoError(t, err)

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		// Verify request
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documents", r.URL.Path)
		assert.Equal(t, "AAAAA", r.Header.Get("Authorization"))
		assert.Equal(t, "BBBBB", r.Header.Get("ServiceAuthorization"))
		assert.Equal(t, "123333", r.Header.Get("user-id"))

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		require.NoError(t, r.ParseMultipartForm(1<<20))

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 2)
		assert.Equal(t, "JDP.pdf", files[0].Filename)
		assert.Equal(t, "application/pdf", files[0].Header.Get("Content-Type"))
		assert.Equal(t, "notes.txt", files[1].Filename)
		assert.Equal(t, "text/plain", files[1].Header.Get("Content-Type"))

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, "This is a test pdf file", string(data))

		assert.Equal(t, []string{"RESTRICTED"}, r.MultipartForm.Value["classification"])
		assert.Len(t, r.MultipartForm.Value, 1)

		w.Header().Set("Content-Type", "application/hal+json")
		w.Write(fixture)
	}))
	defer server.Close()

	client := newTestUploadClient(t, server.URL)

	resp, err := client.Upload(context.Background(), "AAAAA", "BBBBB", "123333", []document.File{
		pdfFile(),
		document.NewFile("notes.txt", "text/plain", []byte("notes")),
	})
	require.NoError(t, err)
	require.NotNil(t, resp)

	assert.Equal(t, int32(1), calls.Load())
	require.Len(t, resp.Results, 1)
	got := resp.Results[0]
	assert.Contains(t, got.FileURL, "http://localhost:8080/documents/6")
	assert.Equal(t, "JDP.pdf", got.FileName)
	assert.Equal(t, "testuser", got.CreatedBy)
	assert.Equal(t, "2017-09-01T13:12:36.862+0000", got.CreatedOn)
	assert.Equal(t, "testuser", got.LastModifiedBy)
	assert.Equal(t, "2017-09-01T13:12:36.860+0000", got.ModifiedOn)
	assert.Equal(t, "application/pdf", got.MimeType)
	assert.Equal(t, document.Status(http.StatusOK), got.Status)
}

func TestUploadClient_Upload_Forbidden(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer server.Close()

	client := newTestUploadClient(t, server.URL)

	resp, err := client.Upload(context.Background(), "AAAAA", "BBBBB", "123333", []document.File{pdfFile()})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, int32(1), calls.Load())

	assert.ErrorIs(t, err, document.ErrTransport)

	var te *document.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusForbidden, te.StatusCode)
	assert.Equal(t, `{"error":"forbidden"}`, string(te.Body))
	assert.False(t, te.IsRetryable())

	status, ok := document.StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestUploadClient_Upload_NoNetworkCall(t *testing.T) {
	readErr := errors.New("temporary file vanished")

	tests := []struct {
		name    string
		files   []document.File
		auth    string
		wantErr error
	}{
		{
			name:    "missing content type",
			files:   []document.File{pdfFile(), document.NewFile("x.bin", "", []byte("x"))},
			auth:    "AAAAA",
			wantErr: document.ErrInvalidInput,
		},
		{
			name:    "no files",
			auth:    "AAAAA",
			wantErr: document.ErrInvalidInput,
		},
		{
			name:    "missing auth token",
			files:   []document.File{pdfFile()},
			wantErr: document.ErrInvalidInput,
		},
		{
			name: "file bytes cannot be read",
			files: []document.File{
				pdfFile(),
				{
					Name:        "broken.pdf",
					ContentType: "application/pdf",
					Content: func() ([]byte, error) {
						return nil, readErr
					},
				},
			},
			auth:    "AAAAA",
			wantErr: document.ErrTemporaryStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newTestUploadClient(t, server.URL)

			resp, err := client.Upload(context.Background(), tt.auth, "BBBBB", "123333", tt.files)
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NotErrorIs(t, err, document.ErrTransport)
			assert.Equal(t, int32(0), calls.Load(), "no request may be sent")
		})
	}
}

func TestUploadClient_Upload_ReadFaultKeepsCause(t *testing.T) {
	readErr := errors.New("temporary file vanished")
	client := newTestUploadClient(t, "http://127.0.0.1:1")

	_, err := client.Upload(context.Background(), "AAAAA", "BBBBB", "123333", []document.File{{
		Name:        "broken.pdf",
		ContentType: "application/pdf",
		Content: func() ([]byte, error) {
			return nil, readErr
		},
	}})
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrTemporaryStore)
	assert.ErrorIs(t, err, readErr)
	assert.Contains(t, err.Error(), "broken.pdf")
}

func TestUploadClient_Upload_DecodeFailure(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>oops</html>"},
		{name: "unexpected object", body: `{"message": "ok"}`},
		{name: "null", body: "null"},
		{name: "empty", body: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestUploadClient(t, server.URL)

			resp, err := client.Upload(context.Background(), "AAAAA", "BBBBB", "123333", []document.File{pdfFile()})
			require.Error(t, err)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, document.ErrDecode)
		})
	}
}

func TestUploadClient_Upload_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestUploadClient(t, url)

	_, err := client.Upload(context.Background(), "AAAAA", "BBBBB", "123333", []document.File{pdfFile()})
	require.Error(t, err)
	assert.ErrorIs(t, err, document.ErrTransport)

	_, ok := document.StatusCode(err)
	assert.False(t, ok)
	assert.True(t, document.IsRetryable(err))
}

func TestUploadClient_Upload_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client, err := NewUploadClient(&Config{
		BaseURL:   server.URL,
		RateLimit: 0.001,
		Burst:     1,
	})
	require.NoError(t, err)

	_, err = client.Upload(context.Background(), "AAAAA", "BBBBB", "123333", []document.File{pdfFile()})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = client.Upload(ctx, "AAAAA", "BBBBB", "123333", []document.File{pdfFile()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.NotErrorIs(t, err, document.ErrTransport)
	assert.False(t, document.IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}
