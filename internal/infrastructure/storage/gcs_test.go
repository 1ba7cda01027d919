package storage_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/infrastructure/storage"
	"github.com/oksasatya/amy-emails/pkg/helpers"
)

func TestGCSUpload(t *testing.T) {
	var uploaded string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		uploaded += string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"bucket":"amy-attachments","name":"attachments/1/certificate.svg","size":"5"}`)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("STORAGE_EMULATOR_HOST", strings.TrimPrefix(srv.URL, "http://"))

	ctx := context.Background()
	client, err := helpers.NewGCSClient(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	url, err := storage.NewGCS(client, "amy-attachments").Upload(ctx, "attachments/1/certificate.svg", "image/svg+xml", strings.NewReader("<svg>"))
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/amy-attachments/attachments/1/certificate.svg", url)
	assert.Contains(t, uploaded, "<svg>")
}
