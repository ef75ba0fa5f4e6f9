package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"merovingian/internal/contract"
)

// s3OpTimeout bounds every request made by S3Archive.
const s3OpTimeout = 5 * time.Minute

// S3Options configures an S3Archive.
type S3Options struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint, when set, targets an S3-compatible service with path-style addressing.
	Endpoint string

	// Static credentials. Both empty means the default AWS credential chain.
	AccessKey string
	SecretKey string
}

// S3Archive stores snapshots as objects in an S3 bucket:
//
//	<prefix>/<repo>/<versionID>
//	<prefix>/<repo>/LATEST
//
// Uploads go through the multipart upload manager, so large snapshots are
// streamed without being buffered in full.
type S3Archive struct {
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Archive creates an archive for the given bucket. No request is made;
// use ValidateSetup to check access.
func NewS3Archive(ctx context.Context, opts S3Options) (*S3Archive, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 archive requires s3_bucket to be set")
	}
	if (opts.AccessKey == "") != (opts.SecretKey == "") {
		return nil, errors.New("s3 archive needs both an access key and a secret key")
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Archive{
		bucket:   opts.Bucket,
		prefix:   strings.Trim(opts.Prefix, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (a *S3Archive) objectKey(repo, name string) string {
	return path.Join(a.prefix, repo, name)
}

// PutSnapshot uploads a snapshot and then points LATEST at it. The marker is
// only moved when exactly size bytes were uploaded.
func (a *S3Archive) PutSnapshot(repo, versionID string, r io.Reader, size int64) error {
	if err := validateSnapshotKey(repo, versionID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3OpTimeout)
	defer cancel()

	body := &countingReader{r: r}
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.objectKey(repo, versionID)),
		Body:        body,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot: %w", err)
	}
	if body.n != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, body.n)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.objectKey(repo, latestName)),
		Body:          strings.NewReader(versionID),
		ContentLength: aws.Int64(int64(len(versionID))),
		ContentType:   aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("updating latest marker: %w", err)
	}
	return nil
}

// GetSnapshot downloads a snapshot and writes it to w.
func (a *S3Archive) GetSnapshot(repo, versionID string, w io.Writer) error {
	if err := validateSnapshotKey(repo, versionID); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3OpTimeout)
	defer cancel()

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.objectKey(repo, versionID)),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("snapshot not found: %s/%s", repo, versionID)
		}
		return fmt.Errorf("downloading snapshot: %w", err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot reads the repository's LATEST marker. Returns "" if it does not exist.
func (a *S3Archive) LatestSnapshot(repo string) (string, error) {
	if err := validateName("repository name", repo); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s3OpTimeout)
	defer cancel()

	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.objectKey(repo, latestName)),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading latest marker: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", fmt.Errorf("reading latest marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ValidateSetup checks that the bucket exists and is reachable with the
// configured credentials.
func (a *S3Archive) ValidateSetup() error {
	ctx, cancel := context.WithTimeout(context.Background(), s3OpTimeout)
	defer cancel()

	if _, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", a.bucket, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Compile-time check that S3Archive implements contract.Archive
var _ contract.Archive = (*S3Archive)(nil)
