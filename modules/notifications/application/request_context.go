package application

import (
	"fmt"
	"net/url"

	"github.com/rai/shop-workflow-go/modules/shared/events/contracts"
)

// RequestContext rebuilds the customer's checkout request so templates can
// build links and pick wording as if that request were being served.
type RequestContext struct {
	BaseURL    *url.URL
	Scheme     string
	Host       string
	Path       string
	Query      url.Values
	UserAgent  string
	RemoteAddr string
	Language   string
	Customer   contracts.CustomerSnapshot
}

func NewRequestContext(order contracts.OrderSnapshot) (RequestContext, error) {
	u, err := url.Parse(order.Request.AbsoluteBaseURI)
	if err != nil {
		return RequestContext{}, fmt.Errorf("parsing base URI: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return RequestContext{}, fmt.Errorf("base URI %q is not absolute", order.Request.AbsoluteBaseURI)
	}
	return RequestContext{
		BaseURL:    u,
		Scheme:     u.Scheme,
		Host:       u.Host,
		Path:       u.Path,
		Query:      u.Query(),
		UserAgent:  order.Request.UserAgent,
		RemoteAddr: order.Request.RemoteIP,
		Language:   order.Request.Language,
		Customer:   order.Customer,
	}, nil
}

// AbsoluteURL resolves ref against the shop's base URL.
func (r RequestContext) AbsoluteURL(ref string) string {
	rel, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return r.BaseURL.ResolveReference(rel).String()
}
