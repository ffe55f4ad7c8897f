// Package transport provides http.RoundTripper wrappers for the SonarQube
// client.
package transport

import "net/http"

// AuthRoundTripper attaches credentials to every outgoing request. A
// revocable token is preferred over user/password when both are set; the
// token is sent as the Basic auth user with an empty password, which is
// how SonarQube expects it. With no credentials it is a pass-through.
type AuthRoundTripper struct {
	Base     http.RoundTripper
	User     string
	Password string
	Token    string
}

func (a *AuthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt := a.Base
	if rt == nil {
		rt = http.DefaultTransport
	}

	switch {
	case a.Token != "":
		req.SetBasicAuth(a.Token, "")
	case a.User != "" && a.Password != "":
		req.SetBasicAuth(a.User, a.Password)
	}

	return rt.RoundTrip(req)
}
