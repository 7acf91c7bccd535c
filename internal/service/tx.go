package service

import (
	"context"
	"errors"
	"time"

	"gestorpecas/internal/apierror"
	"gestorpecas/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Options tunes behaviour shared by all services.
type Options struct {
	RequestTimeout time.Duration
	TxMaxAttempts  int
	SearchMaxLimit int
}

func (o Options) withDefaults() Options {
	if o.RequestTimeout <= 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.TxMaxAttempts < 1 {
		o.TxMaxAttempts = 3
	}
	if o.SearchMaxLimit < 1 {
		o.SearchMaxLimit = 100
	}
	return o
}

// errTxConflict marks a failure that a fresh attempt of the same transaction
// is expected to resolve.
var errTxConflict = errors.New("transaction conflict")

// runner bounds every operation by the request timeout and turns whatever
// escapes into the error taxonomy.
type runner struct {
	db   *gorm.DB
	opts Options
}

// runTx executes fn inside a GORM transaction. Serialization failures and
// errTxConflict are retried up to TxMaxAttempts times; fn must therefore be
// free of side effects outside tx.
func (r runner) runTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= r.opts.TxMaxAttempts; attempt++ {
		err = r.db.WithContext(ctx).Transaction(fn)
		if err == nil {
			return nil
		}
		if !retriable(err) || ctx.Err() != nil {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("retrying transaction")
	}
	return classify(ctx, err)
}

// read runs a non-transactional lookup under the same timeout and mapping.
func (r runner) read(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return classify(ctx, err)
	}
	return nil
}

func retriable(err error) bool {
	return errors.Is(err, errTxConflict) || repository.IsSerializationFailure(err)
}

// classify passes domain errors through and wraps everything else as a
// storage failure.
func classify(ctx context.Context, err error) error {
	var domainErr *apierror.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Error().Err(err).Msg("operation timed out")
		return apierror.Storage(ctxErr)
	}
	log.Error().Err(err).Msg("storage failure")
	return apierror.Storage(err)
}

// notFound maps a missing row to nf and leaves other errors alone.
func notFound(err error, nf error) error {
	if repository.IsNotFound(err) {
		return nf
	}
	return err
}
