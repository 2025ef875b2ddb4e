// Package store records per-request usage of the transformation pipeline.
package store

import (
	"context"

	"github.com/zhuangyq008/s3-image-process/internal/domain"
)

type UsageStore interface {
	Record(ctx context.Context, entry domain.UsageLog) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.UsageLog, error)
}
