package actions

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/did-storefront/redreport"
)

func (a *Actions) GetProfile(ctx context.Context, p Principal) json.RawMessage {
	return a.read(ctx, "get_profile", p, redreport.PathProfile)
}

func (a *Actions) ListNumbers(ctx context.Context, p Principal) json.RawMessage {
	return a.read(ctx, "list_numbers", p, redreport.PathNumbers)
}

func (a *Actions) GetNumber(ctx context.Context, p Principal, numberID string) json.RawMessage {
	if numberID == "" {
		return nil
	}
	return a.read(ctx, "get_number", p, redreport.NumberPath(numberID))
}

func (a *Actions) ListTransactions(ctx context.Context, p Principal, opts ListOptions) json.RawMessage {
	return a.read(ctx, "list_transactions", p, redreport.WithQuery(redreport.PathTransactions, opts.values()))
}

func (a *Actions) ListCalls(ctx context.Context, p Principal, opts ListOptions) json.RawMessage {
	return a.read(ctx, "list_calls", p, redreport.WithQuery(redreport.PathCalls, opts.values()))
}

func (a *Actions) ListSMS(ctx context.Context, p Principal, opts ListOptions) json.RawMessage {
	return a.read(ctx, "list_sms", p, redreport.WithQuery(redreport.PathSMS, opts.values()))
}

func (a *Actions) ListPayments(ctx context.Context, p Principal, opts ListOptions) json.RawMessage {
	return a.read(ctx, "list_payments", p, redreport.WithQuery(redreport.PathPayments, opts.values()))
}

func (a *Actions) ListIVROrders(ctx context.Context, p Principal) json.RawMessage {
	return a.read(ctx, "list_ivr_orders", p, redreport.PathIVR)
}

func (a *Actions) ListUploads(ctx context.Context, p Principal) json.RawMessage {
	return a.read(ctx, "list_uploads", p, redreport.PathUploads)
}
