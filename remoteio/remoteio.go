// Package remoteio fetches raster bytes from remote blob storage for
// gdxio's drivers to decode, grounded directly on the teacher's own
// cloud.OpenBucket (cloud/bucket.go): a gocloud.dev/blob.Bucket opened
// against a "file://", "gs://", or "s3://" URL, with the gs and s3
// providers configured exactly the way the teacher configures them
// (gcp.DefaultCredentials for GCS, an aws-sdk-go session.Session built
// from AWS_REGION/AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY for S3). gdx
// adds a retry wrapper around the fetch itself, in the style of the
// teacher's sr.go use of cenkalti/backoff around RunJob, since a
// network read of a remote raster is exactly the kind of transient
// failure backoff.RetryNotify exists for.
package remoteio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cenkalti/backoff"
	"github.com/ctessum/gdx/gdxlog"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/gcsblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcp"
)

// OpenBucket returns the blob storage bucket named by bucketURL, which
// must be in "provider://bucket" form. The accepted providers are
// "file" for the local filesystem, "gs" for Google Cloud Storage, and
// "s3" for AWS S3, matching the teacher's cloud.OpenBucket exactly.
func OpenBucket(ctx context.Context, bucketURL string) (*blob.Bucket, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, fmt.Errorf("remoteio: OpenBucket: %w", err)
	}
	switch u.Scheme {
	case "file":
		return fileblob.OpenBucket(u.Hostname(), nil)
	case "gs":
		return gsBucket(ctx, u.Hostname())
	case "s3":
		return s3Bucket(ctx, u.Hostname())
	default:
		return nil, fmt.Errorf("remoteio: OpenBucket: invalid provider %q", u.Scheme)
	}
}

func gsBucket(ctx context.Context, name string) (*blob.Bucket, error) {
	creds, err := gcp.DefaultCredentials(ctx)
	if err != nil {
		return nil, err
	}
	c, err := gcp.NewHTTPClient(gcp.DefaultTransport(), gcp.CredentialsTokenSource(creds))
	if err != nil {
		return nil, err
	}
	return gcsblob.OpenBucket(ctx, c, name, nil)
}

// s3Bucket opens an S3 bucket, assuming AWS_REGION, AWS_ACCESS_KEY_ID,
// and AWS_SECRET_ACCESS_KEY are set in the environment.
func s3Bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-east-2"
	}
	cfg := &aws.Config{
		Region:      aws.String(region),
		Credentials: credentials.NewEnvCredentials(),
	}
	sess := session.Must(session.NewSession(cfg))
	return s3blob.OpenBucket(ctx, sess, name, nil)
}

// Fetcher downloads one key's bytes from a bucket, retrying transient
// errors with an exponential backoff and logging each retry, the same
// pattern the teacher applies to cloud job submission in sr.go.
type Fetcher struct {
	Bucket *blob.Bucket
	Log    gdxlog.Logger
}

// NewFetcher returns a Fetcher reading from bucket. A nil log discards
// retry notifications.
func NewFetcher(bucket *blob.Bucket, log gdxlog.Logger) *Fetcher {
	if log == nil {
		log = gdxlog.Nop{}
	}
	return &Fetcher{Bucket: bucket, Log: log}
}

// Fetch returns the bytes stored at key, retrying on error with an
// exponential backoff until an attempt succeeds, ctx is cancelled, or
// the default backoff's 15-minute elapsed-time limit is reached.
func (f *Fetcher) Fetch(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		r, err := f.Bucket.NewReader(ctx, key, nil)
		if err != nil {
			return err
		}
		defer r.Close()
		buf := &bytes.Buffer{}
		if _, err := io.Copy(buf, r); err != nil {
			return err
		}
		data = buf.Bytes()
		return nil
	}
	notify := func(err error, d time.Duration) {
		f.Log.Warnf("remoteio: fetching %s: %v: retrying in %v", key, err, d)
	}
	if err := backoff.RetryNotify(op, backoff.NewExponentialBackOff(), notify); err != nil {
		return nil, fmt.Errorf("remoteio: Fetch %s: %w", key, err)
	}
	return data, nil
}

// Push uploads data to key, retrying transient errors the same way
// Fetch does.
func (f *Fetcher) Push(ctx context.Context, key string, data []byte) error {
	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		w, err := f.Bucket.NewWriter(ctx, key, nil)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	}
	notify := func(err error, d time.Duration) {
		f.Log.Warnf("remoteio: pushing %s: %v: retrying in %v", key, err, d)
	}
	if err := backoff.RetryNotify(op, backoff.NewExponentialBackOff(), notify); err != nil {
		return fmt.Errorf("remoteio: Push %s: %w", key, err)
	}
	return nil
}
