package server

import (
	"github.com/jrsteele09/did-storefront/internal/metrics"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("GET "+RouteAuthProviders, ChainMiddleware(s.ProvidersHandler(), s.StdMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteAuthSignIn, ChainMiddleware(s.SignInRedirectHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthSignIn, ChainMiddleware(s.SignInHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.StdMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.StdMiddleware(s.RateLimitMiddleware)...)) // form_post response mode
	s.RegisterRouteHandler("POST "+RouteAuthSignOut, ChainMiddleware(s.SignOutHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.AuthMiddleware()...))

	// ACCOUNT
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.GetProfileHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteProfile, ChainMiddleware(s.UpdateProfileHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteNumbers, ChainMiddleware(s.ListNumbersHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteNumber, ChainMiddleware(s.GetNumberHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteNumberRouting, ChainMiddleware(s.UpdateRoutingHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("POST "+RouteNumberBuy, ChainMiddleware(s.BuyNumberHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("POST "+RoutePurchaseWait, ChainMiddleware(s.MarkWaitingHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteTransactions, ChainMiddleware(s.ListTransactionsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCalls, ChainMiddleware(s.ListCallsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSMS, ChainMiddleware(s.ListSMSHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePayments, ChainMiddleware(s.ListPaymentsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePayments, ChainMiddleware(s.CreatePaymentHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteIVR, ChainMiddleware(s.ListIVROrdersHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteIVR, ChainMiddleware(s.CreateIVROrderHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))
	s.RegisterRouteHandler("GET "+RouteUploads, ChainMiddleware(s.ListUploadsHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteUploads, ChainMiddleware(s.UploadFileHandler(), s.APIMiddleware(s.RequireSessionMiddleware)...))

	// CART
	s.RegisterRouteHandler("GET "+RouteCart, ChainMiddleware(s.GetCartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteCart, ChainMiddleware(s.AddToCartHandler(), s.APIMiddleware(s.RequireIdentityMiddleware)...))
	s.RegisterRouteHandler("DELETE "+RouteCartItem, ChainMiddleware(s.RemoveFromCartHandler(), s.APIMiddleware(s.RequireIdentityMiddleware)...))

	// PUBLIC
	s.RegisterRouteHandler("GET "+RouteCountries, ChainMiddleware(s.ListCountriesHandler(), s.StdMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAvailable, ChainMiddleware(s.SearchNumbersHandler(), s.StdMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteValidate, ChainMiddleware(s.ValidateHandler(), s.StdMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteContact, ChainMiddleware(s.ContactHandler(), s.StdMiddleware(s.RateLimitMiddleware)...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, metrics.Handler())

	// CORS preflight for every route above
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.HealthHandler(), s.StdMiddleware()...))
}
