package api

import "net/http"

// Link is a HATEOAS navigation link.  Rel and Name always carry the
// same value; Href is an absolute URL.
type Link struct {
	Rel  string `json:"rel"`
	Name string `json:"name"`
	Href string `json:"href"`
}

func link(kind, href string) Link {
	return Link{Rel: kind, Name: kind, Href: href}
}

// baseURL reconstructs scheme://host for the current request.  The Host
// header carries any non-default port.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// selfLink links to the request URL including its query string.
func selfLink(r *http.Request) Link {
	return link("self", baseURL(r)+r.URL.RequestURI())
}

// selfPathLink links to the request path with the query string dropped.
func selfPathLink(r *http.Request) Link {
	return link("self", baseURL(r)+r.URL.Path)
}

func eateryURL(r *http.Request, eateryID string) string {
	return baseURL(r) + "/eateries/" + eateryID
}

func orderURL(r *http.Request, orderID string) string {
	return baseURL(r) + "/orders/" + orderID
}

func eateryLink(r *http.Request, eateryID string) Link {
	return link("eatery", eateryURL(r, eateryID))
}

func orderLink(r *http.Request, orderID string) Link {
	return link("order", orderURL(r, orderID))
}
