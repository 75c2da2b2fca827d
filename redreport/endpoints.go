package redreport

import (
	"net/url"
)

const (
	PathProfile         = "/profile"
	PathNumbers         = "/numbers"
	PathTransactions    = "/transactions"
	PathCalls           = "/calls"
	PathSMS             = "/sms"
	PathPayments        = "/payments"
	PathIVR             = "/ivr"
	PathUploads         = "/uploads"
	PathCart            = "/cart"
	PathPurchaseWaiting = "/purchase/waiting"
	PathCountries       = "/catalogue/countries"
	PathAvailable       = "/catalogue/numbers"
)

func NumberPath(id string) string {
	return PathNumbers + "/" + url.PathEscape(id)
}

func NumberRoutingPath(id string) string {
	return NumberPath(id) + "/routing"
}

func NumberBuyPath(id string) string {
	return NumberPath(id) + "/buy"
}

func CartItemPath(numberID string) string {
	return PathCart + "/" + url.PathEscape(numberID)
}

// WithQuery appends non-empty query values to path
func WithQuery(path string, query url.Values) string {
	for k, v := range query {
		if len(v) == 0 || v[0] == "" {
			query.Del(k)
		}
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
