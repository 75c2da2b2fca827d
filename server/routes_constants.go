package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth routes
	RouteAuthProviders = "/auth/providers"
	RouteAuthSignIn    = "/auth/signin/{provider}"
	RouteAuthCallback  = "/auth/callback/{provider}"
	RouteAuthSignOut   = "/auth/signout"
	RouteAuthSession   = "/auth/session"
	RouteAuthRefresh   = "/auth/refresh"

	// Account routes (session required)
	RouteProfile       = "/api/profile"
	RouteNumbers       = "/api/numbers"
	RouteNumber        = "/api/numbers/{id}"
	RouteNumberRouting = "/api/numbers/{id}/routing"
	RouteNumberBuy     = "/api/numbers/{id}/buy"
	RoutePurchaseWait  = "/api/purchase/waiting"
	RouteTransactions  = "/api/transactions"
	RouteCalls         = "/api/calls"
	RouteSMS           = "/api/sms"
	RoutePayments      = "/api/payments"
	RouteIVR           = "/api/ivr"
	RouteUploads       = "/api/uploads"

	// Cart routes (guest or session)
	RouteCart     = "/api/cart"
	RouteCartItem = "/api/cart/{numberId}"

	// Public routes
	RouteCountries = "/api/catalogue/countries"
	RouteAvailable = "/api/catalogue/numbers"
	RouteValidate  = "/api/validate/{schema}"
	RouteContact   = "/api/contact"
	RouteMetrics   = "/metrics"
	RouteHealth    = "/healthz"
)
