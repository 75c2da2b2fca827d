package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/did-storefront/actions"
	"github.com/jrsteele09/did-storefront/internal/errors"
	"github.com/jrsteele09/did-storefront/notify"
	"github.com/jrsteele09/did-storefront/redreport"
	"github.com/jrsteele09/did-storefront/validation"
	"github.com/rs/zerolog/log"
)

const maxUploadBytes = 10 << 20

func listOptions(r *http.Request) actions.ListOptions {
	q := r.URL.Query()
	opts := actions.ListOptions{NumberID: q.Get("numberId")}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.Limit, _ = strconv.Atoi(q.Get("limit"))
	opts.From, _ = time.Parse(time.RFC3339, q.Get("from"))
	opts.To, _ = time.Parse(time.RFC3339, q.Get("to"))
	return opts
}

// Reads

func (s *Server) GetProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.GetProfile(r.Context(), principal(r)))
	}
}

func (s *Server) ListNumbersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListNumbers(r.Context(), principal(r)))
	}
}

func (s *Server) GetNumberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.GetNumber(r.Context(), principal(r), r.PathValue("id")))
	}
}

func (s *Server) ListTransactionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListTransactions(r.Context(), principal(r), listOptions(r)))
	}
}

func (s *Server) ListCallsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListCalls(r.Context(), principal(r), listOptions(r)))
	}
}

func (s *Server) ListSMSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListSMS(r.Context(), principal(r), listOptions(r)))
	}
}

func (s *Server) ListPaymentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListPayments(r.Context(), principal(r), listOptions(r)))
	}
}

func (s *Server) ListIVROrdersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListIVROrders(r.Context(), principal(r)))
	}
}

func (s *Server) ListUploadsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListUploads(r.Context(), principal(r)))
	}
}

// Mutations

func (s *Server) BuyNumberHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item redreport.CartItem
		if !decodeJSON(w, r, &item) {
			return
		}
		item.NumberID = r.PathValue("id")
		payload, actionErr := s.actions.BuyNumber(r.Context(), principal(r), item)
		writeMutation(w, payload, actionErr)
	}
}

func (s *Server) MarkWaitingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var intent redreport.PurchaseIntent
		if !decodeJSON(w, r, &intent) {
			return
		}
		payload, actionErr := s.actions.MarkWaiting(r.Context(), principal(r), intent)
		writeMutation(w, payload, actionErr)
	}
}

func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var profile validation.Profile
		if !decodeJSON(w, r, &profile) {
			return
		}
		payload, actionErr := s.actions.UpdateProfile(r.Context(), principal(r), profile)
		writeMutation(w, payload, actionErr)
	}
}

func (s *Server) UpdateRoutingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var routing redreport.Routing
		if !decodeJSON(w, r, &routing) {
			return
		}
		payload, actionErr := s.actions.UpdateRouting(r.Context(), principal(r), r.PathValue("id"), routing)
		writeMutation(w, payload, actionErr)
	}
}

// UploadFileHandler accepts a multipart form with a single "file" field.
func (s *Server) UploadFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		var (
			filename    string
			contentType string
			file        io.Reader
		)
		if f, header, err := r.FormFile("file"); err == nil {
			defer f.Close()
			filename = header.Filename
			contentType = header.Header.Get("Content-Type")
			file = f
		}

		payload, actionErr := s.actions.UploadFile(r.Context(), principal(r), filename, contentType, file)
		writeMutation(w, payload, actionErr)
	}
}

func (s *Server) CreateIVROrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var order json.RawMessage
		if !decodeJSON(w, r, &order) {
			return
		}
		payload, actionErr := s.actions.CreateIVROrder(r.Context(), principal(r), order)
		writeMutation(w, payload, actionErr)
	}
}

func (s *Server) CreatePaymentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payment json.RawMessage
		if !decodeJSON(w, r, &payment) {
			return
		}
		payload, actionErr := s.actions.CreatePayment(r.Context(), principal(r), payment)
		writeMutation(w, payload, actionErr)
	}
}

// Cart

func (s *Server) GetCartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.GetCart(r.Context(), principal(r)))
	}
}

func (s *Server) AddToCartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item redreport.CartItem
		if !decodeJSON(w, r, &item) {
			return
		}
		payload, actionErr := s.actions.AddToCart(r.Context(), principal(r), item)
		writeMutation(w, payload, actionErr)
	}
}

func (s *Server) RemoveFromCartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, actionErr := s.actions.RemoveFromCart(r.Context(), principal(r), r.PathValue("numberId"))
		writeMutation(w, payload, actionErr)
	}
}

// Public

func (s *Server) ListCountriesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeRead(w, s.actions.ListCountries(r.Context()))
	}
}

func (s *Server) SearchNumbersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		writeRead(w, s.actions.SearchAvailableNumbers(r.Context(), q.Get("country"), q.Get("type")))
	}
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ValidateHandler checks a form body against a named schema so the UI can show field errors.
func (s *Server) ValidateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "too_long")
			return
		}

		err = validation.ValidateJSON(r.PathValue("schema"), body)
		var fieldErrs validation.Errors
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, validateResponse{Valid: true})
		case errors.As(err, &fieldErrs):
			writeJSON(w, http.StatusOK, validateResponse{Errors: fieldErrs.Map()})
		case errors.Is(err, errors.ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown_schema")
		default:
			writeError(w, http.StatusBadRequest, "invalid_json")
		}
	}
}

// validateContact is replaceable in tests
var validateContact = func(c validation.Contact) error { return validation.Validate(c) }

// ContactHandler forwards the support form to Slack.
func (s *Server) ContactHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var contact validation.Contact
		if !decodeJSON(w, r, &contact) {
			return
		}
		var fieldErrs validation.Errors
		if err := validateContact(contact); errors.As(err, &fieldErrs) {
			writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: &actions.ActionError{
				Status:  http.StatusUnprocessableEntity,
				Message: "validation_failed",
				Fields:  fieldErrs.Map(),
			}})
			return
		} else if err != nil {
			log.Err(err).Msg("contact form validation failed")
			writeError(w, http.StatusInternalServerError, "internal_error")
			return
		}

		notify.Send(s.notifier, notify.ContactMessage(contact.Name, contact.Email, contact.Subject, contact.Message))
		writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
