// Package archive downloads release archives over HTTP(S) or from S3 and
// unpacks them.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rapids-dev/rapids/internal/rerr"
)

// Fetcher streams one archive into w.
type Fetcher interface {
	Fetch(ctx context.Context, w io.Writer) (int64, error)
	Source() string
}

// NewFetcher picks a fetcher by URL scheme: http, https or s3://bucket/key.
func NewFetcher(ctx context.Context, rawURL, region string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, rerr.Wrap(rerr.ValidationFailed, "parse archive URL", err)
	}
	switch u.Scheme {
	case "http", "https":
		return &HTTPFetcher{URL: rawURL, Client: &http.Client{Timeout: 5 * time.Minute}}, nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, rerr.WithDetails(rerr.ValidationFailed, "s3 archive URL must look like s3://bucket/key",
				map[string]string{"field": "archive_url"})
		}
		return NewS3Fetcher(ctx, u.Host, key, region)
	default:
		return nil, rerr.WithDetails(rerr.ValidationFailed,
			fmt.Sprintf("unsupported archive URL scheme %q", u.Scheme),
			map[string]string{"field": "archive_url"})
	}
}

type HTTPFetcher struct {
	URL    string
	Client *http.Client
}

func (f *HTTPFetcher) Source() string {
	return f.URL
}

func (f *HTTPFetcher) Fetch(ctx context.Context, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request for %s: %w", f.URL, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", f.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to download %s: %s", f.URL, resp.Status)
	}
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read body of %s: %w", f.URL, err)
	}
	return n, nil
}

// GetObjectAPI is the slice of the S3 client the fetcher needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Fetcher struct {
	Client GetObjectAPI
	Bucket string
	Key    string
}

func NewS3Fetcher(ctx context.Context, bucket, key, region string) (*S3Fetcher, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Fetcher{Client: s3.NewFromConfig(cfg), Bucket: bucket, Key: key}, nil
}

func (f *S3Fetcher) Source() string {
	return "s3://" + f.Bucket + "/" + f.Key
}

func (f *S3Fetcher) Fetch(ctx context.Context, w io.Writer) (int64, error) {
	out, err := f.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.Bucket),
		Key:    aws.String(f.Key),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", f.Source(), err)
	}
	defer out.Body.Close()
	n, err := io.Copy(w, out.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read body of %s: %w", f.Source(), err)
	}
	return n, nil
}
