// Package objectstore uploads DA blobs to the 4everland IPFS-backed,
// S3-compatible bucket and fetches back the ipfs-hash the gateway computed,
// grounded on the original Rust client's s3::Bucket::put_object_stream /
// head_object call shape but built on aws-sdk-go-v2, the real S3 SDK the
// pack's storage-facing examples use.
package objectstore

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/zk-thunder/da-pipeline/internal/errs"
)

// IPFSHashMetadataKey is the object metadata key 4everland populates with
// the content's IPFS CID once an upload completes.
const IPFSHashMetadataKey = "ipfs-hash"

// Client talks to the 4everland bucket over the S3 API.
type Client struct {
	s3     *s3.Client
	bucket string
}

// Options configures a new Client.
type Options struct {
	Endpoint  string
	Region    string
	APIKey    string
	SecretKey string
	Bucket    string
}

// New builds a Client with static credentials and a custom endpoint
// resolver, the way any S3-compatible-but-not-AWS backend is wired through
// aws-sdk-go-v2.
func New(ctx context.Context, opts Options) (*Client, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(
		func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if opts.Endpoint == "" {
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}
			return aws.Endpoint{URL: opts.Endpoint, SigningRegion: opts.Region}, nil
		})

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.APIKey, opts.SecretKey, "")),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, errs.IPFS(err)
	}

	return &Client{
		s3:     s3.NewFromConfig(cfg, func(o *s3.Options) { o.UsePathStyle = true }),
		bucket: opts.Bucket,
	}, nil
}

// Put uploads data under key and returns the IPFS hash reported by the
// gateway, fetched via a follow-up HEAD request since 4everland returns it
// as object metadata rather than in the PUT response body.
func (c *Client) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", errs.IPFS(err)
	}
	return c.IPFSHash(ctx, key)
}

// IPFSHash fetches the ipfs-hash metadata 4everland attaches to the object
// stored at key via HEAD, failing with errs.IPFS if the metadata is absent.
func (c *Client) IPFSHash(ctx context.Context, key string) (string, error) {
	head, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", errs.IPFS(err)
	}
	hash, ok := head.Metadata[IPFSHashMetadataKey]
	if !ok || hash == "" {
		return "", errs.IPFSf("object %q has no %s metadata", key, IPFSHashMetadataKey)
	}
	return hash, nil
}
