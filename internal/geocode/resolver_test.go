package geocode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// scriptedClient replays canned lookups and records every address it was
// asked for.
type scriptedClient struct {
	responses []*LookupResult
	errs      []error
	calls     []string
}

func (c *scriptedClient) Lookup(ctx context.Context, address string) (*LookupResult, error) {
	i := len(c.calls)
	c.calls = append(c.calls, address)

	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}

	if i < len(c.responses) {
		return c.responses[i], nil
	}

	return &LookupResult{Status: StatusZeroResults}, nil
}

// newTestResolver removes the inter-attempt pacing so multi-candidate
// tests do not sleep through real delays.
func newTestResolver(client LookupClient, bounds Bounds) *Resolver {
	r := NewResolver(client, bounds)
	r.limiter = rate.NewLimiter(rate.Inf, 1)
	return r
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name string
		addr Address
		want []string
	}{
		{
			name: "full address",
			addr: Address{Street: "12 Queen St", Suburb: "CBD", City: "Auckland", Region: "Auckland", PostalCode: "1010"},
			want: []string{
				"12 Queen St, CBD, Auckland, Auckland, 1010",
				"CBD, Auckland, Auckland, 1010",
				"CBD, Auckland, Auckland",
				"CBD, Auckland",
				"Auckland",
			},
		},
		{
			name: "missing street still includes suburb and city fallbacks",
			addr: Address{Suburb: "Riccarton", City: "Christchurch", Region: "Canterbury", PostalCode: "8041"},
			want: []string{
				"Riccarton, Christchurch, Canterbury, 8041",
				"Riccarton, Christchurch, Canterbury",
				"Riccarton, Christchurch",
				"Christchurch",
			},
		},
		{
			name: "city only collapses to a single candidate",
			addr: Address{City: "Auckland"},
			want: []string{"Auckland"},
		},
		{
			name: "whitespace fields are dropped",
			addr: Address{Street: "  ", City: "Dunedin", Region: "Otago"},
			want: []string{
				"Dunedin, Otago",
				"Dunedin",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.addr))
		})
	}
}

func TestResolveFirstCandidateSucceeds(t *testing.T) {
	client := &scriptedClient{
		responses: []*LookupResult{
			{Status: StatusOK, Latitude: -36.8485, Longitude: 174.7633, FormattedAddress: "Auckland, New Zealand"},
		},
	}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{City: "Auckland"})

	require.True(t, result.Success)
	assert.Equal(t, -36.8485, result.Latitude)
	assert.Equal(t, 174.7633, result.Longitude)
	assert.Equal(t, "Auckland, New Zealand", result.FormattedAddress)
	assert.Len(t, client.calls, 1)
}

func TestResolveFallsBackToLessSpecificCandidates(t *testing.T) {
	client := &scriptedClient{
		responses: []*LookupResult{
			{Status: StatusZeroResults},
			{Status: StatusZeroResults},
			{Status: StatusOK, Latitude: -43.5321, Longitude: 172.6362, FormattedAddress: "Riccarton, Christchurch, New Zealand"},
		},
	}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{
		Suburb: "Riccarton",
		City:   "Christchurch",
		Region: "Canterbury",
	})

	require.True(t, result.Success)
	assert.Equal(t, "Riccarton, Christchurch, New Zealand", result.FormattedAddress)
	assert.Equal(t, []string{
		"Riccarton, Christchurch, Canterbury",
		"Riccarton, Christchurch",
		"Christchurch",
	}, client.calls)
}

func TestResolveRejectsOutOfBoundsCoordinates(t *testing.T) {
	// Sydney is a plausible provider answer for an ambiguous query, but it
	// is outside the service region.
	client := &scriptedClient{
		responses: []*LookupResult{
			{Status: StatusOK, Latitude: -33.8688, Longitude: 151.2093, FormattedAddress: "Sydney NSW, Australia"},
		},
	}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{City: "Newcastle"})

	require.False(t, result.Success)
	assert.Equal(t, ReasonOutsideRegion, result.Reason)
}

func TestResolveQuotaExceededStopsRemainingAttempts(t *testing.T) {
	client := &scriptedClient{
		responses: []*LookupResult{
			{Status: StatusZeroResults},
			{Status: StatusOverQueryLimit},
			{Status: StatusOK, Latitude: -36.8485, Longitude: 174.7633},
		},
	}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{
		Street: "1 Fake Lane",
		Suburb: "Ponsonby",
		City:   "Auckland",
	})

	require.False(t, result.Success)
	assert.Equal(t, ReasonQuotaExceeded, result.Reason)
	assert.Equal(t, 2, len(client.calls), "no further provider calls after quota exhaustion")
}

func TestResolveAllCandidatesExhausted(t *testing.T) {
	client := &scriptedClient{}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{Suburb: "Nowhere", City: "Atlantis"})

	require.False(t, result.Success)
	assert.Equal(t, ReasonNotFound, result.Reason)
	assert.Equal(t, 2, len(client.calls))
}

func TestResolveMissingCityIsInvalid(t *testing.T) {
	client := &scriptedClient{}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{Street: "12 Queen St"})

	require.False(t, result.Success)
	assert.Equal(t, ReasonInvalidRequest, result.Reason)
	assert.Empty(t, client.calls)
}

func TestResolveTransportErrorContinues(t *testing.T) {
	client := &scriptedClient{
		errs: []error{errors.New("connection refused"), nil},
		responses: []*LookupResult{
			nil,
			{Status: StatusOK, Latitude: -41.2866, Longitude: 174.7756, FormattedAddress: "Wellington, New Zealand"},
		},
	}

	resolver := newTestResolver(client, NZBounds)

	result := resolver.Resolve(context.Background(), Address{Suburb: "Te Aro", City: "Wellington"})

	require.True(t, result.Success)
	assert.Equal(t, "Wellington, New Zealand", result.FormattedAddress)
}

func TestNewResolverPacesFirstRetry(t *testing.T) {
	resolver := NewResolver(&scriptedClient{}, NZBounds)

	// The pacer must start empty, otherwise the wait before the second
	// candidate returns immediately and the retry is not delayed.
	assert.False(t, resolver.limiter.Allow())
}

func TestBoundsContains(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"auckland", -36.8485, 174.7633, true},
		{"invercargill", -46.4132, 168.3538, true},
		{"sydney", -33.8688, 151.2093, false},
		{"london", 51.5074, -0.1278, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NZBounds.Contains(tt.lat, tt.lng))
		})
	}
}
