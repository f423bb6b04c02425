package scm

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Error kinds, used when formatting failures for the terminal.
const (
	KindConnect     = "connect"
	KindRequest     = "request"
	KindHTTP        = "http"
	KindUnexpected  = "unexpected_status"
	KindOrgNotFound = "org_not_found"
	KindInternal    = "internal"
)

const connectMessage = "Failed to connect to SCM, please check your credentials."

// ConnectError is returned when the realm could not be reached at all.
type ConnectError struct {
	URL string
	Err error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// RequestError covers request failures that are not connectivity problems.
type RequestError struct {
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request %s: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// HTTPError is a 4xx or 5xx response to a required fetch.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *HTTPError) Error() string {
	kind := "Client Error"
	if e.StatusCode >= 500 {
		kind = "Server Error"
	}
	return fmt.Sprintf("%d %s: %s for url: %s", e.StatusCode, kind, statusText(e.Status, e.StatusCode), e.URL)
}

// UnexpectedStatusError is a non-error response that is not 200 OK.
type UnexpectedStatusError struct {
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unexpected response %q from %s", e.Status, e.URL)
}

type OrgNotFoundError struct {
	Name string
}

func (e *OrgNotFoundError) Error() string {
	return fmt.Sprintf("Could not find an org with name '%s'", e.Name)
}

// statusText strips the numeric prefix net/http puts in front of Status.
func statusText(status string, code int) string {
	if s := strings.TrimPrefix(status, strconv.Itoa(code)+" "); s != "" && s != status {
		return s
	}
	if s := http.StatusText(code); s != "" {
		return s
	}
	return status
}

// isConnectFailure reports whether a transport error means the host was unreachable.
func isConnectFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "tls:") ||
		strings.Contains(msg, "x509:")
}

// Classify returns the kind of failure behind err.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var (
		connErr     *ConnectError
		reqErr      *RequestError
		httpErr     *HTTPError
		statusErr   *UnexpectedStatusError
		notFoundErr *OrgNotFoundError
	)
	switch {
	case errors.As(err, &connErr):
		return KindConnect
	case errors.As(err, &httpErr):
		return KindHTTP
	case errors.As(err, &statusErr):
		return KindUnexpected
	case errors.As(err, &notFoundErr):
		return KindOrgNotFound
	case errors.As(err, &reqErr):
		return KindRequest
	default:
		return KindInternal
	}
}

// Pretty formats err the way it is shown to the operator.
func Pretty(err error) string {
	if err == nil {
		return ""
	}

	switch Classify(err) {
	case KindConnect:
		return "\nERROR: " + connectMessage

	case KindHTTP:
		var httpErr *HTTPError
		errors.As(err, &httpErr)
		return "\nERROR: " + httpErr.Error()

	case KindUnexpected:
		var statusErr *UnexpectedStatusError
		errors.As(err, &statusErr)
		banner := strings.Repeat("=", 79)
		var b strings.Builder
		b.WriteString(banner + "\n")
		b.WriteString("Access to SteelConnect Manager failed:\n")
		fmt.Fprintf(&b, "%s %s\n", statusErr.Status, statusErr.Body)
		b.WriteString(banner)
		return b.String()

	case KindOrgNotFound:
		var notFoundErr *OrgNotFoundError
		errors.As(err, &notFoundErr)
		return "\n" + notFoundErr.Error()

	case KindRequest:
		var reqErr *RequestError
		errors.As(err, &reqErr)
		return "ERROR: " + reqErr.Err.Error()

	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
