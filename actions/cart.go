package actions

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/did-storefront/internal/metrics"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/validation"
)

// Cart calls are keyed by X-UID so guests can shop. The bearer token is added when a
// session exists, letting the backend merge the guest cart into the account.

func (a *Actions) GetCart(ctx context.Context, p Principal) json.RawMessage {
	if !p.Identified() {
		metrics.ObserveGateRejection("get_cart")
		return nil
	}
	payload, err := a.client.Get(ctx, redreport.PathCart, p.caller())
	if err != nil {
		logFailure(err, "get_cart")
		return nil
	}
	return payload
}

func (a *Actions) AddToCart(ctx context.Context, p Principal, item redreport.CartItem) (json.RawMessage, *ActionError) {
	return a.cartMutation(ctx, "add_to_cart", p, func(c redreport.Caller) (json.RawMessage, error) {
		if err := validation.Validate(item); err != nil {
			return nil, err
		}
		return a.client.Post(ctx, redreport.PathCart, c, item)
	})
}

func (a *Actions) RemoveFromCart(ctx context.Context, p Principal, numberID string) (json.RawMessage, *ActionError) {
	return a.cartMutation(ctx, "remove_from_cart", p, func(c redreport.Caller) (json.RawMessage, error) {
		return a.client.Delete(ctx, redreport.CartItemPath(numberID), c)
	})
}

func (a *Actions) cartMutation(ctx context.Context, name string, p Principal, call func(redreport.Caller) (json.RawMessage, error)) (json.RawMessage, *ActionError) {
	if !p.Identified() {
		metrics.ObserveGateRejection(name)
		return nil, ErrNotAuthenticated()
	}
	payload, err := call(p.caller())
	if err != nil {
		logFailure(err, name)
		return nil, toActionError(err)
	}
	return payload, nil
}
