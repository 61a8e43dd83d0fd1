// Package storage keeps rendered invoice documents on the local filesystem
// or in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no document exists at the key.
var ErrNotFound = errors.New("document not found")

// Storage abstracts document storage. Keys are slash-separated relative
// paths such as "invoices/shop.myshopify.com/FAC-2025-0001.html".
type Storage interface {
	// Put writes content and returns the URL the document is served from.
	Put(ctx context.Context, key string, body io.Reader, contentType string) (url string, err error)

	// Get opens the document at key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the document at key. Missing documents are not an error.
	Delete(ctx context.Context, key string) error

	// PresignGet returns a time-limited URL for a private document.
	// Backends without access control return the permanent URL.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeSegment makes s usable as one path segment: unsafe runs become a
// single dash and leading dots are dropped so ".." can never appear.
func sanitizeSegment(s string) string {
	s = unsafeKeyChars.ReplaceAllString(strings.TrimSpace(s), "-")
	s = strings.TrimLeft(s, ".")
	if s == "" {
		return "_"
	}
	return s
}

// InvoiceKey builds the storage key of an invoice document.
func InvoiceKey(shop, invoiceNumber, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("invoices/%s/%s.%s", sanitizeSegment(shop), sanitizeSegment(invoiceNumber), ext)
}

// Config selects and configures a backend.
type Config struct {
	Provider  string // "local" or "s3"
	LocalPath string
	URLPrefix string
	S3        S3Config
}

// New builds the backend named by cfg.Provider. Empty means local.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocal(cfg.LocalPath, cfg.URLPrefix), nil
	case "s3":
		return NewS3(ctx, cfg.S3)
	}
	return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
}
