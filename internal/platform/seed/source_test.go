package seed

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestOpen_SelectsSource(t *testing.T) {
	ctx := context.Background()

	src, err := Open(ctx, "", S3Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.String() != "embedded:default.yaml" {
		t.Errorf("expected embedded source, got %s", src)
	}

	src, err = Open(ctx, "./seed.yaml", S3Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := src.(FileSource); !ok {
		t.Errorf("expected FileSource, got %T", src)
	}

	src, err = Open(ctx, "s3://reference/seed/default.yaml", S3Config{
		Region:          "eu-west-1",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s3src, ok := src.(*S3Source)
	if !ok {
		t.Fatalf("expected *S3Source, got %T", src)
	}
	if s3src.Bucket != "reference" || s3src.Key != "seed/default.yaml" {
		t.Errorf("unexpected bucket/key %s/%s", s3src.Bucket, s3src.Key)
	}
}

func TestParseS3URL_Invalid(t *testing.T) {
	for _, raw := range []string{"s3://", "s3://bucket", "s3://bucket/"} {
		if _, _, err := parseS3URL(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, []byte("drugs: []\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	data, err := FileSource(path).Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "drugs: []\n" {
		t.Errorf("unexpected content %q", data)
	}

	if _, err := FileSource(filepath.Join(t.TempDir(), "missing.yaml")).Load(context.Background()); err == nil {
		t.Error("expected error for a missing file")
	}
}

// objectTransport serves GetObject for path-style requests from a map.
type objectTransport struct {
	objects  map[string][]byte
	requests []string
}

func (o *objectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	path := strings.TrimPrefix(req.URL.Path, "/")
	o.requests = append(o.requests, req.Method+" "+req.URL.Host+"/"+path)
	body, ok := o.objects[path]
	if req.Method != http.MethodGet || !ok {
		msg := `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     http.Header{"Content-Type": {"application/xml"}},
			Body:       io.NopCloser(strings.NewReader(msg)),
			Request:    req,
		}, nil
	}
	return &http.Response{
		StatusCode:    http.StatusOK,
		Header:        http.Header{"Content-Type": {"application/yaml"}},
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}, nil
}

func newMockS3(t *testing.T, rt *objectTransport) *s3.Client {
	t.Helper()
	client, err := NewS3Client(context.Background(), S3Config{
		Region:          "us-east-1",
		Endpoint:        "https://minio.local",
		PathStyle:       true,
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: rt}
	})
	if err != nil {
		t.Fatalf("new s3 client: %v", err)
	}
	return client
}

func TestS3Source_Load(t *testing.T) {
	rt := &objectTransport{objects: map[string][]byte{
		"reference/seed.yaml": []byte("articles:\n  - title: Port care\n"),
	}}
	src := &S3Source{Client: newMockS3(t, rt), Bucket: "reference", Key: "seed.yaml"}

	data, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Articles) != 1 || doc.Articles[0].Title != "Port care" {
		t.Errorf("unexpected document %+v", doc)
	}
	if len(rt.requests) != 1 || rt.requests[0] != "GET minio.local/reference/seed.yaml" {
		t.Errorf("expected a path-style request to the custom endpoint, got %v", rt.requests)
	}
}

func TestS3Source_MissingObject(t *testing.T) {
	rt := &objectTransport{objects: map[string][]byte{}}
	src := &S3Source{Client: newMockS3(t, rt), Bucket: "reference", Key: "missing.yaml"}

	_, err := src.Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), "s3://reference/missing.yaml") {
		t.Fatalf("expected error naming the object, got %v", err)
	}
}
