package aiclient

import (
	"net/url"
	"strings"
)

// During local development the frontend dev server and the API run on
// different ports, so the proxy endpoint has to be absolute. Deployed
// builds are served same-origin and use a relative path.
const (
	localEndpoint = "http://localhost:8080/v1/generate"
	relativePath  = "/v1/generate"
)

// ResolveEndpoint maps the serving origin to the proxy endpoint. It is
// a pure function of the origin string.
func ResolveEndpoint(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return localEndpoint
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return localEndpoint
	}

	return strings.TrimRight(origin, "/") + relativePath
}
