package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/orderlens/orderlens/internal/storage"
)

type fakeClient struct {
	puts          []string
	bucketExists  bool
	createdBucket string
}

func (f *fakeClient) Put(_ context.Context, _, key string, _ io.Reader, size int64, _ string) (storage.ObjectInfo, error) {
	f.puts = append(f.puts, key)
	return storage.ObjectInfo{Key: key, Size: size}, nil
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeClient) CreateBucket(_ context.Context, bucket, _ string) error {
	f.createdBucket = bucket
	return nil
}

func TestPutNormalizesKey(t *testing.T) {
	fake := &fakeClient{}
	store, err := NewWithClient("orders", "snapshots", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	info, err := store.Put(context.Background(), "/orders//2024.parquet", strings.NewReader("x"), 1, "application/octet-stream")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if info.Key != "snapshots/orders/2024.parquet" {
		t.Fatalf("Key = %q", info.Key)
	}
}

func TestPutRejectsTraversal(t *testing.T) {
	store, err := NewWithClient("orders", "", &fakeClient{})
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	for _, key := range []string{"", "   ", "../secret", "a/../../b"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, ""); err == nil {
			t.Fatalf("Put(%q) should fail", key)
		}
	}
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := &fakeClient{bucketExists: false}
	store, err := NewWithClient("orders", "", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if fake.createdBucket != "orders" {
		t.Fatalf("createdBucket = %q", fake.createdBucket)
	}

	fake = &fakeClient{bucketExists: true}
	store, _ = NewWithClient("orders", "", fake)
	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if fake.createdBucket != "" {
		t.Fatalf("bucket created despite existing")
	}
}
