package s3

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ekisa-team/yoloexport/internal/config"
)

// NewClient returns a new S3 client. Credentials come from the default AWS chain.
func NewClient(ctx context.Context, c config.S3Config) (*Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(c.Region))
	}
	if c.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(c.Profile))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	svc := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.EndpointURL != "" {
			o.BaseEndpoint = aws.String(c.EndpointURL)
		}
		o.UsePathStyle = c.UsePathStyle
	})

	return &Client{svc: svc}, nil
}

// Client is a client for S3.
type Client struct {
	svc *s3.Client
}

// Download uses a download manager to download an object from a bucket.
// The download manager gets the data in parts and writes them to w until all of
// the data has been downloaded.
func (c *Client) Download(ctx context.Context, w io.WriterAt, bucket, key string) (int64, error) {
	const partMiBs int64 = 64
	downloader := manager.NewDownloader(c.svc, func(d *manager.Downloader) {
		d.PartSize = partMiBs * 1024 * 1024
	})
	return downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}
