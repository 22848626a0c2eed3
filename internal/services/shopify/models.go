package shopify

import "fmt"

// AccessTokenHeader carries the static access token on every request.
const AccessTokenHeader = "X-Shopify-Access-Token"

// ProductsKey is the envelope key holding the product array.
const ProductsKey = "products"

// FetchError is returned for any failure to obtain a usable product list:
// transport errors, non-2xx responses, malformed JSON or a missing envelope.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.URL == "":
		return fmt.Sprintf("fetch products: %v", e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("fetch products from %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("fetch products from %s: %v", e.URL, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
