package handlers

import (
	"context"

	"github.com/tradehub-dev/tradehub/internal/entitlement"
	"github.com/tradehub-dev/tradehub/internal/geocode"
	"github.com/tradehub-dev/tradehub/internal/services"
)

// AddressResolver is the geocoding entry point the business handlers use.
type AddressResolver interface {
	Resolve(ctx context.Context, addr geocode.Address) geocode.Result
}

// Collaborators wired up in main (and replaced with fakes in tests).
var (
	Mail     services.MailSender
	Storage  services.ObjectStorage
	Payments services.PaymentProvider
	Resolver AddressResolver
	Gate     *entitlement.Gate
)
