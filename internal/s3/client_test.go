package s3

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekisa-team/yoloexport/internal/config"
)

func TestNewClient(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))

	c, err := NewClient(context.Background(), config.S3Config{
		Region:       "eu-west-1",
		EndpointURL:  "http://localhost:9000",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	opts := c.svc.Options()
	assert.Equal(t, "eu-west-1", opts.Region)
	assert.Equal(t, "http://localhost:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}
