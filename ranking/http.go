package ranking

import (
	"log"
	"net/http"
	"time"
)

// HTTPLogger logs every request made through the wrapped transport.
type HTTPLogger struct {
	Transport http.RoundTripper
}

// NewHTTPLogger wraps next, http.DefaultTransport when nil.
func NewHTTPLogger(next http.RoundTripper) *HTTPLogger {
	if next == nil {
		next = http.DefaultTransport
	}
	return &HTTPLogger{Transport: next}
}

func (l *HTTPLogger) RoundTrip(r *http.Request) (*http.Response, error) {
	initialTime := time.Now()
	method := r.Method
	path := r.URL.String()
	resp, err := l.Transport.RoundTrip(r)
	elapsed := time.Since(initialTime) / time.Millisecond
	if err != nil {
		log.Printf("http: time:%dms error %s %s: %s", elapsed, method, path, err)
		return nil, err
	}
	log.Printf("http: time:%dms %d %s %s", elapsed, resp.StatusCode, method, path)
	return resp, nil
}

// NewHTTPClient builds the client used for provider downloads. Redirect
// chains are capped.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewHTTPLogger(nil),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
}
