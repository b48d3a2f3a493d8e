package store

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// Fallback chains a durable primary Store with an in-process secondary.
// Reads try the primary and fall back on failure; writes go to both so a
// primary outage mid-session loses nothing the secondary still holds.
// The engine never sees ErrStoreUnavailable through this wrapper unless
// both sides fail.
type Fallback struct {
	primary   Store
	secondary Store
	log       zerolog.Logger
}

// NewFallback wraps primary with secondary as the degradation target.
// secondary is expected to be a Memory store and must not fail.
func NewFallback(primary, secondary Store, log zerolog.Logger) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		log:       log.With().Str("component", "store_fallback").Logger(),
	}
}

func (f *Fallback) GetAll(ctx context.Context, collection string) (map[string][]byte, error) {
	records, err := f.primary.GetAll(ctx, collection)
	if err == nil {
		return records, nil
	}
	f.degraded("get_all", collection, err)
	return f.secondary.GetAll(ctx, collection)
}

func (f *Fallback) Get(ctx context.Context, collection, key string) ([]byte, error) {
	v, err := f.primary.Get(ctx, collection, key)
	if err == nil {
		return v, nil
	}
	f.degraded("get", collection, err)
	return f.secondary.Get(ctx, collection, key)
}

func (f *Fallback) Put(ctx context.Context, collection, key string, value []byte) error {
	perr := f.primary.Put(ctx, collection, key, value)
	serr := f.secondary.Put(ctx, collection, key, value)
	if perr != nil {
		f.degraded("put", collection, perr)
		return serr
	}
	return perr
}

func (f *Fallback) Delete(ctx context.Context, collection, key string) error {
	perr := f.primary.Delete(ctx, collection, key)
	serr := f.secondary.Delete(ctx, collection, key)
	if perr != nil {
		f.degraded("delete", collection, perr)
		return serr
	}
	return perr
}

func (f *Fallback) Clear(ctx context.Context, collection string) error {
	perr := f.primary.Clear(ctx, collection)
	serr := f.secondary.Clear(ctx, collection)
	if perr != nil {
		f.degraded("clear", collection, perr)
		return serr
	}
	return perr
}

func (f *Fallback) degraded(op, collection string, err error) {
	if errors.Is(err, ErrStoreUnavailable) {
		f.log.Warn().Str("op", op).Str("collection", collection).Err(err).
			Msg("Primary store unavailable, serving from fallback")
		return
	}
	f.log.Error().Str("op", op).Str("collection", collection).Err(err).
		Msg("Primary store error, serving from fallback")
}
