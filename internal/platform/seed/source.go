package seed

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

//go:embed default.yaml
var defaultDocument []byte

// Source yields the raw bytes of a seed document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	String() string
}

// S3Config configures the client used for s3:// sources. Endpoint and
// PathStyle allow S3-compatible servers such as MinIO. Static keys are
// optional; without them the default AWS credential chain is used.
type S3Config struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Open resolves a SEED_SOURCE value: empty means the embedded default,
// s3://bucket/key an object in S3, anything else a local file path.
func Open(ctx context.Context, location string, cfg S3Config) (Source, error) {
	location = strings.TrimSpace(location)
	switch {
	case location == "":
		return Embedded(), nil
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := parseS3URL(location)
		if err != nil {
			return nil, err
		}
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &S3Source{Client: client, Bucket: bucket, Key: key}, nil
	default:
		return FileSource(location), nil
	}
}

type embeddedSource struct{}

// Embedded returns the document compiled into the binary.
func Embedded() Source { return embeddedSource{} }

func (embeddedSource) Load(context.Context) ([]byte, error) { return defaultDocument, nil }

func (embeddedSource) String() string { return "embedded:default.yaml" }

// FileSource reads a document from the local filesystem.
type FileSource string

func (f FileSource) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return data, nil
}

func (f FileSource) String() string { return "file:" + string(f) }

// ObjectGetter is the part of the S3 API a source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads a document from a single S3 object.
type S3Source struct {
	Client ObjectGetter
	Bucket string
	Key    string
}

func (s *S3Source) Load(ctx context.Context) ([]byte, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	return data, nil
}

func (s *S3Source) String() string { return "s3://" + s.Bucket + "/" + s.Key }

// NewS3Client builds an S3 client from cfg on top of the default AWS
// configuration chain.
func NewS3Client(ctx context.Context, cfg S3Config, optFns ...func(*s3.Options)) (*s3.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	return client, nil
}

func parseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse seed source %q: %w", raw, err)
	}
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("seed source %q must be s3://bucket/key", raw)
	}
	return bucket, key, nil
}
