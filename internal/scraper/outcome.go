package scraper

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"syscall"
)

// Outcome is the terminal state of one fetch.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeTimeout         Outcome = "timeout"
	OutcomeConnectionError Outcome = "connection_error"
	OutcomeHTTPError       Outcome = "http_error"
	OutcomeUnknown         Outcome = "unknown"
)

// ClassifyError maps a transport error onto an Outcome.
// A nil error classifies as OutcomeOK.
func ClassifyError(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}

	var (
		dnsErr     *net.DNSError
		opErr      *net.OpError
		recordErr  tls.RecordHeaderError
		verifyErr  *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
	)
	switch {
	case errors.As(err, &dnsErr),
		errors.As(err, &opErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.As(err, &recordErr),
		errors.As(err, &verifyErr),
		errors.As(err, &unknownCA),
		errors.As(err, &hostErr),
		errors.As(err, &invalidErr):
		return OutcomeConnectionError
	}

	return OutcomeUnknown
}

// ClassifyStatus maps an HTTP status code onto an Outcome.
func ClassifyStatus(code int) Outcome {
	if code >= 200 && code < 300 {
		return OutcomeOK
	}
	return OutcomeHTTPError
}
