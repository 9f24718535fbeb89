package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytracker/internal/kv"
)

// fakeS3 is a tiny path-style S3 subset: Get/Put/Delete/ListObjectsV2.
type fakeS3 struct {
	mu    sync.Mutex
	state map[string][]byte
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}
	if req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2" {
		prefix := req.URL.Query().Get("prefix")
		var keys []string
		for k := range f.state {
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString(`<?xml version="1.0"?><ListBucketResult><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size></Contents>", k, len(f.state[k]))
		}
		b.WriteString("</ListBucketResult>")
		return respond(http.StatusOK, []byte(b.String()), "application/xml"), nil
	}
	switch req.Method {
	case http.MethodGet:
		body, ok := f.state[key]
		if !ok {
			return respond(http.StatusNotFound,
				[]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`),
				"application/xml"), nil
		}
		return respond(http.StatusOK, body, "application/octet-stream"), nil
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		f.state[key] = body
		return respond(http.StatusOK, nil, ""), nil
	case http.MethodDelete:
		delete(f.state, key)
		return respond(http.StatusNoContent, nil, ""), nil
	}
	return respond(http.StatusNotImplemented, nil, ""), nil
}

func respond(status int, body []byte, contentType string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	h.Set("Content-Length", fmt.Sprintf("%d", len(body)))
	return &http.Response{StatusCode: status, Header: h, Body: io.NopCloser(bytes.NewReader(body)), ContentLength: int64(len(body))}
}

// decodeChunked unwraps a single-chunk aws-chunked payload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 || parts[2] != "0" && !strings.HasPrefix(parts[2], "0;") {
		return nil, false
	}
	var size int
	if _, err := fmt.Sscanf(strings.SplitN(parts[0], ";", 2)[0], "%x", &size); err != nil || size != len(parts[1]) {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newTestStore(t *testing.T) (*Store, *fakeS3) {
	t.Helper()
	fake := &fakeS3{state: map[string][]byte{}}
	s, err := New(context.Background(), Config{
		Bucket:          "ledger",
		Prefix:          "moneytracker",
		Endpoint:        "https://mock.s3.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
		HTTPClient:      &http.Client{Transport: fake},
	})
	require.NoError(t, err)
	return s, fake
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Config{})
	require.Error(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	b := s.Bucket(kv.NamespaceRecords)

	_, found, err := b.Get(ctx, "records")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Put(ctx, "records", []byte(`[{"id":"1"}]`)))
	assert.Contains(t, fake.state, "moneytracker/records/records")

	got, found, err := b.Get(ctx, "records")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `[{"id":"1"}]`, string(got))
}

func TestStoreKeysAndClearStayInNamespace(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStore(t)
	records := s.Bucket(kv.NamespaceRecords)
	tags := s.Bucket(kv.NamespaceTags)

	require.NoError(t, records.Put(ctx, "a", []byte("1")))
	require.NoError(t, records.Put(ctx, "b", []byte("2")))
	require.NoError(t, tags.Put(ctx, "tags", []byte("3")))

	keys, err := records.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	require.NoError(t, records.Delete(ctx, "a"))
	require.NoError(t, records.Clear(ctx))
	keys, err = records.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Contains(t, fake.state, "moneytracker/tags/tags")
}
