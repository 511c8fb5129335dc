package domain

import "net/url"

// StoredRequest is the request context captured when the customer checked
// out. It is immutable and later used to render notifications as if the
// customer's own request were being served.
type StoredRequest struct {
	language        string
	absoluteBaseURI string
	userAgent       string
	remoteIP        string
}

func NewStoredRequest(language, absoluteBaseURI, userAgent, remoteIP string) (StoredRequest, error) {
	u, err := url.Parse(absoluteBaseURI)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return StoredRequest{}, ErrInvalidBaseURI
	}
	return StoredRequest{
		language:        language,
		absoluteBaseURI: absoluteBaseURI,
		userAgent:       userAgent,
		remoteIP:        remoteIP,
	}, nil
}

func (r StoredRequest) Language() string        { return r.language }
func (r StoredRequest) AbsoluteBaseURI() string { return r.absoluteBaseURI }
func (r StoredRequest) UserAgent() string       { return r.userAgent }
func (r StoredRequest) RemoteIP() string        { return r.remoteIP }
