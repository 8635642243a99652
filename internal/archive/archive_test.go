package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapids-dev/rapids/internal/rerr"
)

type entry struct {
	name string
	body string
	dir  bool
}

func buildTarGz(t *testing.T, entries []entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func releaseArchive(t *testing.T) []byte {
	return buildTarGz(t, []entry{
		{name: "rapids-main/", dir: true},
		{name: "rapids-main/.claude/", dir: true},
		{name: "rapids-main/.claude/RAPIDS_METHOD.md", body: "# RAPIDS Method v4.2\n"},
		{name: "rapids-main/.claude/commands/plan.md", body: "plan"},
		{name: "rapids-main/README.md", body: "readme"},
	})
}

func TestExtractStripsFirstComponent(t *testing.T) {
	dest := t.TempDir()
	stats, err := ExtractTarGz(bytes.NewReader(releaseArchive(t)), dest, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)
	assert.FileExists(t, filepath.Join(dest, ".claude", "commands", "plan.md"))
	assert.FileExists(t, filepath.Join(dest, "README.md"))
	assert.NoDirExists(t, filepath.Join(dest, "rapids-main"))
}

func TestExtractRejectsTraversal(t *testing.T) {
	data := buildTarGz(t, []entry{{name: "top/../../evil.txt", body: "x"}})
	_, err := ExtractTarGz(bytes.NewReader(data), t.TempDir(), 1)
	require.Error(t, err)
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := ExtractTarGz(bytes.NewReader([]byte("not gzip")), t.TempDir(), 1)
	require.Error(t, err)
}

func TestHTTPDownload(t *testing.T) {
	payload := releaseArchive(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/main.tar.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f, err := NewFetcher(context.Background(), srv.URL+"/main.tar.gz", "us-east-1")
	require.NoError(t, err)
	rel, err := Download(context.Background(), f)
	require.NoError(t, err)
	defer rel.Close()

	assert.Equal(t, "4.2", rel.Version)
	assert.Equal(t, int64(len(payload)), rel.Bytes)
	assert.FileExists(t, filepath.Join(rel.ConfigDir(), "commands", "plan.md"))

	require.NoError(t, rel.Close())
	_, err = os.Stat(rel.Dir)
	assert.True(t, os.IsNotExist(err))
}

func TestHTTPDownloadStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f, err := NewFetcher(context.Background(), srv.URL+"/missing.tar.gz", "")
	require.NoError(t, err)
	_, err = Download(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

type fakeS3 struct {
	body  []byte
	input *s3.GetObjectInput
	err   error
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestS3Download(t *testing.T) {
	client := &fakeS3{body: releaseArchive(t)}
	f := &S3Fetcher{Client: client, Bucket: "releases", Key: "rapids/main.tar.gz"}

	rel, err := Download(context.Background(), f)
	require.NoError(t, err)
	defer rel.Close()

	assert.Equal(t, "releases", aws.ToString(client.input.Bucket))
	assert.Equal(t, "rapids/main.tar.gz", aws.ToString(client.input.Key))
	assert.Equal(t, "s3://releases/rapids/main.tar.gz", rel.Source)
	assert.Equal(t, "4.2", rel.Version)
}

func TestS3DownloadError(t *testing.T) {
	f := &S3Fetcher{Client: &fakeS3{err: errors.New("access denied")}, Bucket: "b", Key: "k"}
	_, err := Download(context.Background(), f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestNewFetcherValidation(t *testing.T) {
	for _, raw := range []string{"ftp://example.com/x.tar.gz", "s3://bucket-only", "://bad"} {
		_, err := NewFetcher(context.Background(), raw, "us-east-1")
		require.Error(t, err, raw)
		assert.True(t, rerr.Is(err, rerr.ValidationFailed), raw)
	}
}

func TestReadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "RAPIDS_METHOD.md")
	assert.Equal(t, "", ReadVersion(path))
	require.NoError(t, os.WriteFile(path, []byte("RAPIDS v3.10.1 notes"), 0644))
	assert.Equal(t, "3.10", ReadVersion(path))
}
