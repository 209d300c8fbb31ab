package e2e

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/Tropical8818/iProTalk/client"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayURL == "" {
		s.T().Skip("E2E_RELAY_URL not set")
	}
}

// Client returns a relay client that logs every round trip.
func (s *BaseHTTPSuite) Client(t *testing.T, name, token string) *client.HTTP {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)

	c := client.NewHTTP(s.Config.RelayURL, token)
	c.HTTP = &http.Client{Transport: &loggingTransport{t: t, debugJSON: s.Config.DebugJSON, colours: s.Config.Colours}}
	return c
}

// With runs fn with a bounded context.
func (s *BaseHTTPSuite) With(name, token string, fn func(ctx context.Context, c *client.HTTP)) {
	c := s.Client(s.T(), name, token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	fn(ctx, c)
}

type loggingTransport struct {
	t         *testing.T
	debugJSON bool
	colours   bool
}

func (l *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	var reqBody []byte
	if l.debugJSON && req.Body != nil {
		reqBody, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(reqBody))
	}

	resp, err := http.DefaultTransport.RoundTrip(req)
	status := "ERR"
	if resp != nil {
		status = resp.Status
	}
	line := fmt.Sprintf("HTTP %s %s [%s] in %v", req.Method, req.URL.Path, status, time.Since(start))
	if l.colours {
		line = color.Cyan.Sprint(line)
	}
	l.t.Log(line)
	if l.debugJSON && len(reqBody) > 0 {
		l.t.Logf("  > %s", reqBody)
	}
	return resp, err
}
