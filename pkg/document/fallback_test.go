package document

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceUnavailable(t *testing.T) {
	read := 0
	counting := func(name string) File {
		return File{
			Name:        name,
			ContentType: "application/pdf",
			Content: func() ([]byte, error) {
				read++
				return []byte("pdf"), nil
			},
		}
	}
	files := []File{counting("a.pdf"), counting("b.pdf"), counting("c.pdf")}

	resp, err := ServiceUnavailable(context.Background(), "AAAAA", "BBBBB", "123333", files)
	require.NoError(t, err)
	require.Len(t, resp.Results, len(files))

	for i, r := range resp.Results {
		assert.Equal(t, Status(http.StatusServiceUnavailable), r.Status)
		assert.Equal(t, files[i].Name, r.FileName)
		assert.Empty(t, r.FileURL)
	}
	assert.Zero(t, read, "fallback must not read file contents")
}

func TestServiceUnavailable_Deterministic(t *testing.T) {
	files := []File{NewFile("JDP.pdf", "application/pdf", nil)}

	first, err := UploadFunc(ServiceUnavailable).Upload(context.Background(), "", "", "", files)
	require.NoError(t, err)
	second, err := ServiceUnavailable(context.Background(), "other", "tokens", "ignored", files)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestServiceUnavailable_NoFiles(t *testing.T) {
	resp, err := ServiceUnavailable(context.Background(), "", "", "", nil)
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}
