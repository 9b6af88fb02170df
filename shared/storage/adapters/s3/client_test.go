package s3

import (
	"bytes"
	"context"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UofM-CEOS/remote-sensing/shared/config"
	"github.com/UofM-CEOS/remote-sensing/shared/observability/mocks"
	storagetypes "github.com/UofM-CEOS/remote-sensing/shared/storage/types"
)

// fakeS3 is a minimal path-style S3 endpoint holding objects in memory.
type fakeS3 struct {
	mu       sync.Mutex
	bucket   string
	objects  map[string][]byte
	requests []string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)

	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	if parts[0] != f.bucket {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodGet && r.URL.Query().Get("list-type") == "2":
		f.list(w, r.URL.Query().Get("prefix"))
	case r.Method == http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			writeError(w, http.StatusNotFound, "NoSuchKey")
			return
		}
		_, _ = w.Write(data)
	case r.Method == http.MethodPut:
		if _, ok := f.objects[key]; ok && r.Header.Get("If-None-Match") == "*" {
			writeError(w, http.StatusPreconditionFailed, "PreconditionFailed")
			return
		}
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) list(w http.ResponseWriter, prefix string) {
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?><ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>%s</Name><Prefix>%s</Prefix><KeyCount>%d</KeyCount><IsTruncated>false</IsTruncated>`, f.bucket, prefix, len(keys))
	for _, k := range keys {
		fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>%d</Size><LastModified>2024-01-01T00:00:00.000Z</LastModified></Contents>`, k, len(f.objects[k]))
	}
	b.WriteString(`</ListBucketResult>`)

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(b.String()))
}

func (f *fakeS3) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

func (f *fakeS3) put(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
}

func (f *fakeS3) methods(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, method+" ") {
			n++
		}
	}
	return n
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`, code, code)
}

func newTestClient(t *testing.T, prefix string) (*Client, *fakeS3) {
	t.Helper()

	fake := &fakeS3{bucket: "sentinel", objects: map[string][]byte{}}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.StorageConfig{
		Provider: "s3",
		Timeout:  5 * time.Second,
		S3: config.S3Config{
			Region:          "us-east-1",
			Bucket:          "sentinel",
			Prefix:          prefix,
			AccessKeyID:     "test",
			SecretAccessKey: "test",
			Endpoint:        server.URL,
		},
	}, mocks.NewPermissiveLogger(), mocks.NewPermissiveMetrics())
	require.NoError(t, err)
	return client, fake
}

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&config.StorageConfig{Provider: "s3"}, mocks.NewPermissiveLogger(), mocks.NewPermissiveMetrics())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid S3 configuration")
}

func TestClient_PutGet(t *testing.T) {
	client, fake := newTestClient(t, "runs/2024")
	ctx := context.Background()

	require.NoError(t, client.Put(ctx, "", "qry_results", bytes.NewBufferString("a 1 b\n"), storagetypes.ObjectMetadata{ContentType: "text/plain"}))
	_, ok := fake.get("runs/2024/qry_results")
	assert.True(t, ok)

	rc, err := client.Get(ctx, "", "qry_results")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a 1 b\n", string(data))
}

func TestClient_GetMissing(t *testing.T) {
	client, _ := newTestClient(t, "")

	_, err := client.Get(context.Background(), "", "missing")
	assert.ErrorIs(t, err, storagetypes.ErrObjectNotFound)
}

func TestClient_Exists(t *testing.T) {
	client, fake := newTestClient(t, "")
	fake.put("PRODUCT/a.zip", []byte("x"))

	exists, err := client.Exists(context.Background(), "", "PRODUCT/a.zip")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.Exists(context.Background(), "", "PRODUCT/b.zip")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_Create(t *testing.T) {
	client, fake := newTestClient(t, "")
	ctx := context.Background()

	w, err := client.Create(ctx, "", "PRODUCT/a.zip")
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	stored, _ := fake.get("PRODUCT/a.zip")
	assert.Equal(t, []byte("payload"), stored)

	_, err = client.Create(ctx, "", "PRODUCT/a.zip")
	assert.ErrorIs(t, err, storagetypes.ErrObjectExists)
}

func TestClient_CreateAbort(t *testing.T) {
	client, fake := newTestClient(t, "")
	ctx := context.Background()

	w, err := client.Create(ctx, "", "PRODUCT/a.zip")
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)

	require.NoError(t, w.Abort())
	require.NoError(t, w.Close())

	_, ok := fake.get("PRODUCT/a.zip")
	assert.False(t, ok)
	assert.Zero(t, fake.methods(http.MethodPut))
	assert.Zero(t, fake.methods(http.MethodDelete))
}

func TestNewClient_CABundle(t *testing.T) {
	tlsServer := httptest.NewTLSServer(http.NotFoundHandler())
	t.Cleanup(tlsServer.Close)

	bundle := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: tlsServer.Certificate().Raw})
	require.NoError(t, os.WriteFile(bundle, pemData, 0o644))
	t.Setenv("AWS_CA_BUNDLE", bundle)

	client, _ := newTestClient(t, "")
	assert.NotNil(t, client)
}

func TestClient_CreateRace(t *testing.T) {
	client, fake := newTestClient(t, "")
	ctx := context.Background()

	w, err := client.Create(ctx, "", "MANIFEST/a-manifest.xml")
	require.NoError(t, err)

	// Another writer wins before this upload completes.
	fake.put("MANIFEST/a-manifest.xml", []byte("other"))

	_, err = w.Write([]byte("mine"))
	require.NoError(t, err)
	assert.ErrorIs(t, w.Close(), storagetypes.ErrObjectExists)
	stored, _ := fake.get("MANIFEST/a-manifest.xml")
	assert.Equal(t, []byte("other"), stored)
}

func TestClient_Append(t *testing.T) {
	client, fake := newTestClient(t, "")
	ctx := context.Background()

	require.NoError(t, client.Append(ctx, "", "PRODUCT/.failed_md5", []byte("a\n")))
	require.NoError(t, client.Append(ctx, "", "PRODUCT/.failed_md5", []byte("b\n")))
	stored, _ := fake.get("PRODUCT/.failed_md5")
	assert.Equal(t, "a\nb\n", string(stored))
}

func TestClient_DeleteList(t *testing.T) {
	client, fake := newTestClient(t, "out")
	ctx := context.Background()

	fake.put("out/PRODUCT/a.zip", []byte("aa"))
	fake.put("out/PRODUCT/b.zip", []byte("b"))
	fake.put("out/MANIFEST/a-manifest.xml", []byte("m"))

	require.NoError(t, client.Delete(ctx, "", "PRODUCT/b.zip"))

	objects, err := client.List(ctx, "", "PRODUCT/")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "PRODUCT/a.zip", objects[0].Key)
	assert.Equal(t, int64(2), objects[0].Size)
}

func TestClient_Resolve(t *testing.T) {
	c := &Client{config: &config.S3Config{Bucket: "default", Prefix: "base"}}

	bucket, key := c.resolve("", "/PRODUCT/x.zip")
	assert.Equal(t, "default", bucket)
	assert.Equal(t, "base/PRODUCT/x.zip", key)

	bucket, key = c.resolve("other", "")
	assert.Equal(t, "other", bucket)
	assert.Equal(t, "base/", key)

	assert.Equal(t, "PRODUCT/x.zip", c.relative("base/PRODUCT/x.zip"))
}
