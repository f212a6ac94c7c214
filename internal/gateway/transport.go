package gateway

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// loggingRoundTripper logs one debug line per request and response.
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logrus.FieldLogger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logger.Debugf("github api: %s %s", req.Method, req.URL.String())
	resp, err := t.base.RoundTrip(req)
	dur := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		t.logger.Debugf("github api: error after %s: %v", dur, err)
		return nil, err
	}
	t.logger.Debugf("github api: %d %s (%s)", resp.StatusCode, http.StatusText(resp.StatusCode), dur)
	return resp, nil
}
