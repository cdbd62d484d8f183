package geocode

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// FailureReason is the fixed set of reasons a resolution can fail with.
type FailureReason string

const (
	ReasonNotFound           FailureReason = "not_found"
	ReasonQuotaExceeded      FailureReason = "quota_exceeded"
	ReasonServiceUnavailable FailureReason = "service_unavailable"
	ReasonInvalidRequest     FailureReason = "invalid_request"
	ReasonTimeout            FailureReason = "timeout"
	ReasonOutsideRegion      FailureReason = "outside_region"
)

// Address is a structured postal address. City is required; everything
// else is optional.
type Address struct {
	Street     string
	Suburb     string
	City       string
	Region     string
	PostalCode string
}

type Result struct {
	Success          bool
	Latitude         float64
	Longitude        float64
	FormattedAddress string
	Reason           FailureReason
}

// Bounds is a geographic bounding box. Results outside it are rejected.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

func (b Bounds) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// NZBounds covers mainland New Zealand.
var NZBounds = Bounds{MinLat: -47.5, MaxLat: -34.0, MinLng: 166.0, MaxLng: 179.0}

// attemptInterval paces provider calls so a multi-candidate resolution
// does not trip the provider's rate limiting.
const attemptInterval = 500 * time.Millisecond

// LookupClient is the provider call the resolver depends on.
type LookupClient interface {
	Lookup(ctx context.Context, address string) (*LookupResult, error)
}

type Resolver struct {
	client  LookupClient
	bounds  Bounds
	limiter *rate.Limiter
}

func NewResolver(client LookupClient, bounds Bounds) *Resolver {
	limiter := rate.NewLimiter(rate.Every(attemptInterval), 1)

	// The bucket starts full, which would make the wait before the second
	// candidate a no-op. Drain it so the first retry is paced too.
	limiter.Allow()

	return &Resolver{
		client:  client,
		bounds:  bounds,
		limiter: limiter,
	}
}

// Candidates builds the address strings to try, most specific first:
// full address, without street, without postal code, suburb+city, city
// only. Empty and duplicate candidates are dropped.
func Candidates(addr Address) []string {
	variants := [][]string{
		{addr.Street, addr.Suburb, addr.City, addr.Region, addr.PostalCode},
		{addr.Suburb, addr.City, addr.Region, addr.PostalCode},
		{addr.Suburb, addr.City, addr.Region},
		{addr.Suburb, addr.City},
		{addr.City},
	}

	var candidates []string
	seen := make(map[string]bool)

	for _, parts := range variants {
		var nonEmpty []string

		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				nonEmpty = append(nonEmpty, part)
			}
		}

		candidate := strings.Join(nonEmpty, ", ")

		if candidate == "" || seen[candidate] {
			continue
		}

		seen[candidate] = true
		candidates = append(candidates, candidate)
	}

	return candidates
}

// Resolve tries each candidate in order and returns the first acceptable
// provider hit. Quota exhaustion aborts the remaining candidates.
func (r *Resolver) Resolve(ctx context.Context, addr Address) Result {
	if strings.TrimSpace(addr.City) == "" {
		return Result{Reason: ReasonInvalidRequest}
	}

	reason := ReasonNotFound

	for i, candidate := range Candidates(addr) {
		if i > 0 {
			if err := r.limiter.Wait(ctx); err != nil {
				return Result{Reason: ReasonTimeout}
			}
		}

		lookup, err := r.client.Lookup(ctx, candidate)

		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.Canceled) {
				reason = ReasonTimeout
			} else {
				reason = ReasonServiceUnavailable
			}
			log.Printf("Geocoding attempt failed for %q: %v", candidate, err)
			continue
		}

		switch lookup.Status {
		case StatusOK:
			if !r.bounds.Contains(lookup.Latitude, lookup.Longitude) {
				log.Printf("Geocoding result for %q outside region (%f, %f)", candidate, lookup.Latitude, lookup.Longitude)
				reason = ReasonOutsideRegion
				continue
			}

			return Result{
				Success:          true,
				Latitude:         lookup.Latitude,
				Longitude:        lookup.Longitude,
				FormattedAddress: lookup.FormattedAddress,
			}
		case StatusZeroResults:
			// Keep trying less specific candidates.
		case StatusOverQueryLimit:
			// No point burning more quota on the remaining candidates.
			return Result{Reason: ReasonQuotaExceeded}
		case StatusRequestDenied, StatusInvalidRequest:
			reason = ReasonInvalidRequest
		default:
			reason = ReasonServiceUnavailable
		}
	}

	return Result{Reason: reason}
}
