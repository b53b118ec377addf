package services

import (
	"context"
	"sync/atomic"
	"time"

	"nicu-finder/internal/domain"
	"nicu-finder/internal/platform/retry"
)

// Single attempt keeps failure tests fast.
var noRetry = retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}

type fakeLimiter struct {
	allow bool
	calls atomic.Int32
}

func (f *fakeLimiter) Allow(context.Context, string) bool {
	f.calls.Add(1)
	return f.allow
}

func ptr[T any](v T) *T { return &v }

func facility(name, state string, level domain.NICULevel, lat, lng float64) domain.CuratedFacility {
	return domain.CuratedFacility{
		Name:        name,
		State:       state,
		County:      "Test County",
		NICULevel:   level.Ptr(),
		Coordinates: &domain.Coordinates{Lat: lat, Lng: lng},
	}
}
