// Package actions is the session-gated data access layer in front of RedReport.
//
// Reads return nil when there is no authenticated session or the backend fails.
// Mutations return an *ActionError instead, so callers render failures without
// special-casing transport errors. Neither contacts the backend without a session.
package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jrsteele09/did-storefront/identity"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/internal/metrics"
	"github.com/jrsteele09/did-storefront/notify"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/sessions"
	"github.com/jrsteele09/did-storefront/validation"
	"github.com/rs/zerolog/log"
)

const notAuthenticated = "not_authenticated"

// ActionError is the failure value of a mutation.
type ActionError struct {
	Status  int               `json:"status"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *ActionError) Error() string {
	return strconv.Itoa(e.Status) + " " + e.Message
}

// ErrNotAuthenticated is returned by every mutation called without a session
func ErrNotAuthenticated() *ActionError {
	return &ActionError{Status: http.StatusUnauthorized, Message: notAuthenticated}
}

// Principal is who an action runs as: the resolved session (may be nil) and the
// browser's anonymous id (may be the sentinel).
type Principal struct {
	Session     *sessions.Session
	AnonymousID string
}

func (p Principal) Authenticated() bool {
	return p.Session.Authenticated()
}

// Identified is true when either a session or an anonymous id can key a cart
func (p Principal) Identified() bool {
	return p.Authenticated() || identity.Valid(p.AnonymousID)
}

func (p Principal) caller() redreport.Caller {
	return redreport.Caller{BearerToken: p.Session.BearerToken(), AnonymousID: p.AnonymousID}
}

type Actions struct {
	client       *redreport.Client
	notifier     notify.Notifier
	catalogueTTL time.Duration
}

type Option func(*Actions)

func WithNotifier(n notify.Notifier) Option {
	return func(a *Actions) {
		a.notifier = n
	}
}

// WithCatalogueTTL sets how long public catalogue lookups are memoized
func WithCatalogueTTL(ttl time.Duration) Option {
	return func(a *Actions) {
		a.catalogueTTL = ttl
	}
}

func New(client *redreport.Client, options ...Option) *Actions {
	a := &Actions{client: client, catalogueTTL: 5 * time.Minute}
	for _, opt := range options {
		opt(a)
	}
	return a
}

func (a *Actions) read(ctx context.Context, name string, p Principal, path string) json.RawMessage {
	if !p.Authenticated() {
		metrics.ObserveGateRejection(name)
		return nil
	}
	payload, err := a.client.Get(ctx, path, p.caller())
	if err != nil {
		logFailure(err, name)
		return nil
	}
	return payload
}

func (a *Actions) mutate(ctx context.Context, name string, p Principal, call func(redreport.Caller) (json.RawMessage, error)) (json.RawMessage, *ActionError) {
	if !p.Authenticated() {
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

func logFailure(err error, action string) {
	if errors.Is(err, errors.ErrNotFound) {
		log.Debug().Err(err).Str("action", action).Msg("backend returned not found")
		return
	}
	log.Err(err).Str("action", action).Msg("backend call failed")
}

func toActionError(err error) *ActionError {
	var statusErr *redreport.StatusError
	if errors.As(err, &statusErr) {
		return &ActionError{Status: statusErr.StatusCode, Message: statusErr.Message()}
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return &ActionError{Status: http.StatusUnprocessableEntity, Message: "validation_failed", Fields: fieldErrs.Map()}
	}
	return &ActionError{Status: http.StatusBadGateway, Message: "server_error"}
}

// ListOptions narrows history listings
type ListOptions struct {
	Page     int
	Limit    int
	NumberID string
	From     time.Time
	To       time.Time
}

func (o ListOptions) values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.NumberID != "" {
		q.Set("numberId", o.NumberID)
	}
	if !o.From.IsZero() {
		q.Set("from", o.From.UTC().Format(time.RFC3339))
	}
	if !o.To.IsZero() {
		q.Set("to", o.To.UTC().Format(time.RFC3339))
	}
	return q
}
