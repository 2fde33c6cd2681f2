package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/placement-tools/placementctl/pkg/version"
)

// VersionHeader carries the requested and negotiated microversion.
const VersionHeader = "OpenStack-API-Version"

// versionService is the service token expected in the version header.
const versionService = "placement"

type contextKey string

const (
	contextKeyRequestID    contextKey = "request-id"
	contextKeyMicroversion contextKey = "microversion"
)

// negotiateMicroversion parses the OpenStack-API-Version header. An absent
// header means the base version. Returns ok=false when the header is
// malformed or names a version outside the supported range.
func negotiateMicroversion(r *http.Request) (version.Version, bool) {
	raw := strings.TrimSpace(r.Header.Get(VersionHeader))
	if raw == "" {
		return version.Min, true
	}

	service, value, found := strings.Cut(raw, " ")
	if !found || service != versionService {
		return version.Version{}, false
	}
	if strings.TrimSpace(value) == "latest" {
		return version.Max, true
	}
	v, err := version.Parse(strings.TrimSpace(value))
	if err != nil {
		return version.Version{}, false
	}
	if !v.AtLeast(version.Min) || !version.Max.AtLeast(v) {
		return version.Version{}, false
	}
	return v, true
}

// microversionFrom returns the negotiated version stored on the request
// context, defaulting to the base version.
func microversionFrom(ctx context.Context) version.Version {
	if v, ok := ctx.Value(contextKeyMicroversion).(version.Version); ok {
		return v
	}
	return version.Min
}
