package lib

import (
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var stripeClient *stripe.Client

func GetStripeClient() *stripe.Client {
	if stripeClient != nil {
		return stripeClient
	}
	apiKey := os.Getenv("STRIPE_SECRET_KEY")
	sc := stripe.NewClient(apiKey)
	stripeClient = sc

	return sc
}

func NewStripeClient(c *stripe.Client) {
	stripeClient = c
}

// VerifyWebhookPayload checks the gateway signature before anything downstream
// sees the payload. Kept here so fulfillment logic stays free of crypto.
func VerifyWebhookPayload(payload []byte, sigHeader string) (stripe.Event, error) {
	whsecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	return webhook.ConstructEvent(payload, sigHeader, whsecret)
}
