package crawler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"

// Session behaves like a single browser tab: every Set-Cookie it receives is
// replayed on all following requests. Cookies are never deduplicated.
// A Session is not safe for concurrent use.
type Session struct {
	client    *resty.Client
	transport *cookieTransport
	encoding  encoding.Encoding
}

type SessionOption func(*Session)

// WithEncoding sets the encoding response bodies are decoded from.
// nil returns bodies as they were received.
func WithEncoding(enc encoding.Encoding) SessionOption {
	return func(s *Session) {
		s.encoding = enc
	}
}

// WithTimeout limits a single request including redirects
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		s.client.SetTimeout(d)
	}
}

func NewSession(opts ...SessionOption) *Session {
	transport := &cookieTransport{base: http.DefaultTransport}

	client := resty.New()
	client.SetCookieJar(nil)
	client.SetTransport(transport)
	client.SetHeader("User-Agent", userAgent)
	client.SetTimeout(30 * time.Second)

	s := &Session{
		client:    client,
		transport: transport,
		encoding:  japanese.ShiftJIS,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request sends one request and returns the decoded body. Redirects are
// followed and non-2xx statuses are not errors: the caller inspects the page.
func (s *Session) Request(ctx context.Context, method, url string, payload Payload) (string, error) {
	log.Debug().Str("method", method).Str("url", url).Msg("requesting")

	req := s.client.R().SetContext(ctx)
	if payload != nil {
		req.SetHeader("Content-Type", "application/x-www-form-urlencoded")
		req.SetBody(payload.Encode())
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", method, url, err)
	}

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode()).
		Int("cookies", len(s.transport.cookies)).
		Msg("response received")

	if s.encoding == nil {
		return string(resp.Body()), nil
	}
	body, err := s.encoding.NewDecoder().Bytes(resp.Body())
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", url, err)
	}
	return string(body), nil
}

// Cookies returns the accumulated name=value pairs in arrival order
func (s *Session) Cookies() []string {
	out := make([]string, len(s.transport.cookies))
	copy(out, s.transport.cookies)
	return out
}

// cookieTransport replays the cookie list on every round trip, redirect hops
// included, and records the name=value part of every Set-Cookie it sees
type cookieTransport struct {
	base    http.RoundTripper
	cookies []string
}

func (t *cookieTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Del("Cookie")
	if len(t.cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(t.cookies, "; "))
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	for _, c := range resp.Header.Values("Set-Cookie") {
		pair := strings.TrimSpace(strings.SplitN(c, ";", 2)[0])
		if pair != "" {
			t.cookies = append(t.cookies, pair)
		}
	}
	return resp, nil
}
