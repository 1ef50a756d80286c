package storage

import (
	"context"
	"fmt"
	"io"
)

// Object is a blob headed for an ObjectStore.
type Object struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (o Object) validate() error {
	if o.Bucket == "" || o.Key == "" {
		return fmt.Errorf("storage: bucket and key required")
	}
	if o.Body == nil {
		return fmt.Errorf("storage: object body required")
	}
	return nil
}

// ObjectStore uploads objects and returns a URL they can be fetched from.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) (string, error)
	Delete(ctx context.Context, bucket, key string) error
}
