package services

import (
	"fmt"
	"os"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/subscription"
	"github.com/stripe/stripe-go/v81/webhook"
)

// PaymentProvider is the slice of the billing vendor the handlers use:
// hosted checkout, cancellation, and webhook verification.
type PaymentProvider interface {
	CreateCheckoutSession(customerEmail string, userID uint) (string, error)
	CancelSubscription(providerSubscriptionID string) error
	ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error)
}

type StripeProvider struct {
	priceID       string
	successURL    string
	cancelURL     string
	webhookSecret string
}

func NewStripeProvider() *StripeProvider {
	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	return &StripeProvider{
		priceID:       os.Getenv("STRIPE_PRO_PRICE_ID"),
		successURL:    os.Getenv("STRIPE_SUCCESS_URL"),
		cancelURL:     os.Getenv("STRIPE_CANCEL_URL"),
		webhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}
}

// CreateCheckoutSession starts a hosted checkout for the pro plan and
// returns the provider URL to redirect the user to.
func (p *StripeProvider) CreateCheckoutSession(customerEmail string, userID uint) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail: stripe.String(customerEmail),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(p.successURL),
		CancelURL:         stripe.String(p.cancelURL),
		ClientReferenceID: stripe.String(fmt.Sprintf("%d", userID)),
	}

	s, err := session.New(params)

	if err != nil {
		return "", err
	}

	return s.URL, nil
}

func (p *StripeProvider) CancelSubscription(providerSubscriptionID string) error {
	_, err := subscription.Cancel(providerSubscriptionID, nil)
	return err
}

func (p *StripeProvider) ConstructWebhookEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, p.webhookSecret)
}
