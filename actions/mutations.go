package actions

import (
	"context"
	"encoding/json"
	"io"

	"github.com/jrsteele09/did-storefront/notify"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/validation"
)

// BuyNumber purchases a number with the routing and documents of item.
func (a *Actions) BuyNumber(ctx context.Context, p Principal, item redreport.CartItem) (json.RawMessage, *ActionError) {
	return a.mutate(ctx, "buy_number", p, func(c redreport.Caller) (json.RawMessage, error) {
		if err := validation.Validate(item); err != nil {
			return nil, err
		}
		return a.client.Post(ctx, redreport.NumberBuyPath(item.NumberID), c, item)
	})
}

// MarkWaiting records a purchase held until uploaded documents are verified and
// tells support about it.
func (a *Actions) MarkWaiting(ctx context.Context, p Principal, intent redreport.PurchaseIntent) (json.RawMessage, *ActionError) {
	payload, actionErr := a.mutate(ctx, "mark_waiting", p, func(c redreport.Caller) (json.RawMessage, error) {
		if len(intent.Items) == 0 {
			return nil, validation.Errors{{Field: "items", Code: validation.CodeRequired}}
		}
		for _, item := range intent.Items {
			if err := validation.Validate(item); err != nil {
				return nil, err
			}
		}
		intent.State = redreport.IntentWaiting
		return a.client.Post(ctx, redreport.PathPurchaseWaiting, c, intent)
	})
	if actionErr != nil {
		return nil, actionErr
	}

	numbers := make([]string, 0, len(intent.Items))
	for _, item := range intent.Items {
		numbers = append(numbers, item.NumberID)
	}
	notify.Send(a.notifier, notify.WaitingMessage(p.Session.User.Email, numbers))
	return payload, nil
}

func (a *Actions) UpdateProfile(ctx context.Context, p Principal, profile validation.Profile) (json.RawMessage, *ActionError) {
	return a.mutate(ctx, "update_profile", p, func(c redreport.Caller) (json.RawMessage, error) {
		if err := validation.Validate(profile); err != nil {
			return nil, err
		}
		return a.client.Put(ctx, redreport.PathProfile, c, profile)
	})
}

func (a *Actions) UpdateRouting(ctx context.Context, p Principal, numberID string, routing redreport.Routing) (json.RawMessage, *ActionError) {
	return a.mutate(ctx, "update_routing", p, func(c redreport.Caller) (json.RawMessage, error) {
		if err := validation.Validate(routing); err != nil {
			return nil, err
		}
		return a.client.Put(ctx, redreport.NumberRoutingPath(numberID), c, routing)
	})
}

func (a *Actions) UploadFile(ctx context.Context, p Principal, filename, contentType string, r io.Reader) (json.RawMessage, *ActionError) {
	return a.mutate(ctx, "upload_file", p, func(c redreport.Caller) (json.RawMessage, error) {
		if filename == "" || r == nil {
			return nil, validation.Errors{{Field: "file", Code: validation.CodeRequired}}
		}
		upload, err := a.client.Upload(ctx, redreport.PathUploads, c, filename, contentType, r)
		if err != nil {
			return nil, err
		}
		return json.Marshal(upload)
	})
}

// CreateIVROrder passes the order through; its shape is owned by RedReport.
func (a *Actions) CreateIVROrder(ctx context.Context, p Principal, order json.RawMessage) (json.RawMessage, *ActionError) {
	return a.mutate(ctx, "create_ivr_order", p, func(c redreport.Caller) (json.RawMessage, error) {
		return a.client.Post(ctx, redreport.PathIVR, c, order)
	})
}

func (a *Actions) CreatePayment(ctx context.Context, p Principal, payment json.RawMessage) (json.RawMessage, *ActionError) {
	return a.mutate(ctx, "create_payment", p, func(c redreport.Caller) (json.RawMessage, error) {
		return a.client.Post(ctx, redreport.PathPayments, c, payment)
	})
}
