package client

import (
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/rs/zerolog"
)

// maxDumpBody is the largest body included in a debug dump; bigger bodies
// (file uploads) are logged without their content.
const maxDumpBody = 64 << 10

// debugTransport logs every request and response at debug level.
//
// Enable it with WithDebugLogging, or set CLAIMSURE_DEBUG=true or DEBUG=true.
// Claim contents appear in the logs; bearer tokens do not.
type debugTransport struct {
	base http.RoundTripper
	log  *zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}
	l := dt.log

	withBody := req.ContentLength >= 0 && req.ContentLength <= maxDumpBody
	dumpReq := req.Clone(req.Context())
	if dumpReq.Header.Get("Authorization") != "" {
		dumpReq.Header.Set("Authorization", "Bearer [redacted]")
	}
	if withBody && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			dumpReq.Body = body
		}
	} else {
		withBody = false
	}
	if reqDump, err := httputil.DumpRequestOut(dumpReq, withBody); err == nil {
		l.Debug().Str("method", req.Method).Str("url", req.URL.String()).Str("request_dump", string(reqDump)).Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		l.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("HTTP request failed")
		return nil, err
	}

	respBody := resp.ContentLength >= 0 && resp.ContentLength <= maxDumpBody
	if respDump, err := httputil.DumpResponse(resp, respBody); err == nil {
		l.Debug().Str("method", req.Method).Str("url", req.URL.String()).Int("status_code", resp.StatusCode).Str("response_dump", string(respDump)).Msg("HTTP response")
	}
	return resp, nil
}

// debugLoggingRequested reports whether CLAIMSURE_DEBUG or DEBUG is "true".
func debugLoggingRequested() bool {
	return os.Getenv("CLAIMSURE_DEBUG") == "true" || os.Getenv("DEBUG") == "true"
}
