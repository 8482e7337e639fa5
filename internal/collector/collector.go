// Package collector reads raw host and service metrics and turns them into samples.
package collector

import (
	"context"
	"fmt"

	internalerrors "github.com/Schera-ole/hostagent/internal/errors"
	models "github.com/Schera-ole/hostagent/internal/model"
)

// Collector produces the samples of one kind for one tick.
//
// Every sample returned carries the header it was given. A failed read returns
// an error wrapping ErrCollection and no samples.
type Collector interface {
	Kind() models.Kind
	Collect(ctx context.Context, h models.Header) ([]models.Sample, error)
}

func collectionError(kind models.Kind, err error) error {
	return fmt.Errorf("%w: %s: %w", internalerrors.ErrCollection, kind, err)
}
