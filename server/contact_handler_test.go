package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jrsteele09/did-storefront/validation"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct{ calls chan string }

func (n countingNotifier) Notify(_ context.Context, text string) error {
	n.calls <- text
	return nil
}

func TestContactHandler_UnexpectedValidationError(t *testing.T) {
	original := validateContact
	validateContact = func(validation.Contact) error { return fmt.Errorf("validator exploded") }
	t.Cleanup(func() { validateContact = original })

	notifier := countingNotifier{calls: make(chan string, 1)}
	s := &Server{notifier: notifier}

	req := httptest.NewRequest(http.MethodPost, "/api/contact",
		strings.NewReader(`{"name":"Ada","email":"ada@example.com","message":"Hello"}`))
	rec := httptest.NewRecorder()
	s.ContactHandler()(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":{"status":500,"message":"internal_error"}}`, rec.Body.String())
	require.Empty(t, notifier.calls)
}
