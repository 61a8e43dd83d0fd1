package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// newTestS3 creates an S3 backend talking to a mock HTTP server.
func newTestS3(t *testing.T, handler http.Handler) (*S3, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)

	client := s3.New(s3.Options{
		BaseEndpoint: aws.String(server.URL),
		Region:       "eu-west-3",
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
	})

	store := &S3{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    "invoices-bucket",
		publicURL: "https://docs.example.com",
	}

	return store, server
}

const invoiceDocKey = "invoices/shop.myshopify.com/FAC-2025-0001.html"

func TestS3_Put(t *testing.T) {
	var capturedPath, capturedContentType, capturedBody string

	store, server := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		capturedPath = r.URL.Path
		capturedContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		capturedBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	url, err := store.Put(context.Background(), invoiceDocKey, strings.NewReader("<html></html>"), "text/html; charset=utf-8")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	if url != "https://docs.example.com/"+invoiceDocKey {
		t.Errorf("url: got %q", url)
	}
	if capturedPath != "/invoices-bucket/"+invoiceDocKey {
		t.Errorf("path: got %q", capturedPath)
	}
	if capturedContentType != "text/html; charset=utf-8" {
		t.Errorf("content type: got %q", capturedContentType)
	}
	if capturedBody != "<html></html>" {
		t.Errorf("body: got %q", capturedBody)
	}
}

func TestS3_Put_PrivateBucket(t *testing.T) {
	store, server := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	store.publicURL = ""

	url, err := store.Put(context.Background(), invoiceDocKey, strings.NewReader("x"), "text/html")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "s3://invoices-bucket/"+invoiceDocKey {
		t.Errorf("url: got %q", url)
	}
}

func TestS3_Put_Error(t *testing.T) {
	store, server := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`))
	}))
	defer server.Close()

	_, err := store.Put(context.Background(), invoiceDocKey, strings.NewReader("x"), "text/html")
	if err == nil || !strings.Contains(err.Error(), "putting object") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestS3_Get(t *testing.T) {
	store, server := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<p>invoice</p>"))
	}))
	defer server.Close()

	rc, err := store.Get(context.Background(), invoiceDocKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "<p>invoice</p>" {
		t.Errorf("body: got %q", body)
	}
}

func TestS3_Get_NotFound(t *testing.T) {
	store, server := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
	}))
	defer server.Close()

	_, err := store.Get(context.Background(), "invoices/missing.html")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3_Delete(t *testing.T) {
	var capturedMethod, capturedPath string

	store, server := newTestS3(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedMethod = r.Method
		capturedPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := store.Delete(context.Background(), invoiceDocKey); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if capturedMethod != http.MethodDelete {
		t.Errorf("method: got %q", capturedMethod)
	}
	if !strings.HasSuffix(capturedPath, invoiceDocKey) {
		t.Errorf("path: got %q", capturedPath)
	}
}

func TestS3_PresignGet(t *testing.T) {
	store, server := newTestS3(t, http.NotFoundHandler())
	defer server.Close()

	short, err := store.PresignGet(context.Background(), invoiceDocKey, 5*time.Minute)
	if err != nil {
		t.Fatalf("PresignGet: %v", err)
	}
	if !strings.Contains(short, "invoices-bucket") || !strings.Contains(short, "X-Amz-Signature") {
		t.Errorf("not a presigned URL: %q", short)
	}

	long, _ := store.PresignGet(context.Background(), invoiceDocKey, 2*time.Hour)
	if short == long {
		t.Error("presigned URLs with different expiry should differ")
	}
}

func TestNewS3(t *testing.T) {
	s, err := NewS3(context.Background(), S3Config{
		Endpoint:       "https://s3.example.com",
		Region:         "eu-west-3",
		AccessKey:      "key",
		SecretKey:      "secret",
		ForcePathStyle: true,
		Bucket:         "my-bucket",
		PublicURL:      "https://cdn.example.com/",
	})
	if err != nil {
		t.Fatalf("NewS3: %v", err)
	}
	if s.bucket != "my-bucket" || s.publicURL != "https://cdn.example.com" {
		t.Errorf("got bucket %q public URL %q", s.bucket, s.publicURL)
	}

	if _, err := NewS3(context.Background(), S3Config{Region: "eu-west-3"}); err == nil {
		t.Error("expected an error without a bucket")
	}
}
