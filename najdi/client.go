// Package najdi sends messages through the free SMS service of the najdi.si
// web portal, which requires a Slovenian mobile account.
package najdi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"i4.energy/across/smsdeliver/sms"
)

// Endpoints are the portal URLs. Send is a template with the placeholders
// {session}, {prefix}, {number} and {data}.
type Endpoints struct {
	Logout  string
	Login   string
	Session string
	Send    string
}

// DefaultEndpoints returns the production portal URLs.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Logout:  "http://www.najdi.si/auth/logout.jsp?target_url=http://www.najdi.si/index.jsp",
		Login:   "https://id.najdi.si/login",
		Session: "http://www.najdi.si/auth/login.jsp?sms=1&target_url=http://www.najdi.si/index.jsp",
		Send: "http://www.najdi.si/sms/smsController.jsp?sms_action=4" +
			"&sms_so_ac_{session}={prefix}" +
			"&sms_so_l_{session}={number}" +
			"&sms_message_{session}={data}",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	d := DefaultEndpoints()
	if e.Logout == "" {
		e.Logout = d.Logout
	}
	if e.Login == "" {
		e.Login = d.Login
	}
	if e.Session == "" {
		e.Session = d.Session
	}
	if e.Send == "" {
		e.Send = d.Send
	}
	return e
}

const (
	loginForm     = "lgn"
	usernameField = "j_username"
	passwordField = "j_password"

	// maxBody caps how much of a portal response is read.
	maxBody = 1 << 20
)

var (
	sessionPattern = regexp.MustCompile(`sms_so_l_(\d+)`)
	balancePattern = regexp.MustCompile(`<strong id="sms_left" name="sms_left">\s?(\d+)\s?/\s?(\d+)\s?</strong>`)
)

// Session is an authenticated portal session.
type Session struct {
	Token string
	// Balance is the number of messages left when the session was opened.
	Balance int
}

// Client speaks the portal's HTTP surface. It keeps cookies between
// requests, so a Client represents one browser.
type Client struct {
	http      *http.Client
	endpoints Endpoints
	username  string
	password  string
	log       *slog.Logger
}

// NewClient returns a Client for the account. A nil httpClient is replaced
// by one with the given timeout; a cookie jar is installed when missing.
func NewClient(endpoints Endpoints, username, password string, httpClient *http.Client, timeout time.Duration) (*Client, error) {
	var hc http.Client
	if httpClient != nil {
		hc = *httpClient
	} else {
		hc.Timeout = timeout
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	return &Client{
		http:      &hc,
		endpoints: endpoints.withDefaults(),
		username:  username,
		password:  password,
		log:       slog.New(slog.DiscardHandler),
	}, nil
}

// Login opens a new session.
//
// Any session left on the server is logged out first, whatever the logout
// page answers. The login form is then
// filled with the account credentials and submitted, and the session page is
// fetched to obtain the session token and the remaining balance. Being sent
// back to the login page means the credentials were rejected.
func (c *Client) Login(ctx context.Context) (Session, error) {
	if err := c.logout(ctx); err != nil {
		return Session{}, sms.CommunicationError("error in communication with service", err)
	}

	page, body, err := c.do(ctx, http.MethodGet, c.endpoints.Login, nil)
	if err != nil {
		return Session{}, sms.CommunicationError("error in communication with service", err)
	}
	f, err := parseForm(bytes.NewReader(body), loginForm)
	if err != nil || f == nil {
		return Session{}, sms.ResponseError("error extracting login form", err)
	}
	if !f.set(usernameField, c.username) || !f.set(passwordField, c.password) {
		return Session{}, sms.ResponseError("error getting username and password form inputs")
	}

	action, err := page.Parse(f.action)
	if err != nil {
		return Session{}, sms.ResponseError("error extracting login form", err)
	}
	if f.method == http.MethodGet {
		action.RawQuery = f.encode()
		_, _, err = c.do(ctx, http.MethodGet, action.String(), nil)
	} else {
		_, _, err = c.do(ctx, http.MethodPost, action.String(), strings.NewReader(f.encode()))
	}
	if err != nil {
		return Session{}, sms.CommunicationError("error in communication with service", err)
	}

	final, body, err := c.do(ctx, http.MethodGet, c.endpoints.Session, nil)
	if err != nil {
		return Session{}, sms.CommunicationError("error in communication with service", err)
	}
	if final.String() == c.endpoints.Login {
		return Session{}, sms.AuthError("error logging in, incorrect username or password")
	}

	m := sessionPattern.FindSubmatch(body)
	if m == nil {
		return Session{}, sms.ResponseError("error getting session id")
	}
	balance, err := parseBalance(body)
	if err != nil {
		return Session{}, err
	}
	c.log.Debug("logged in", "balance", balance)
	return Session{Token: string(m[1]), Balance: balance}, nil
}

// SendSMS sends text to the subscriber behind the operator prefix and
// returns the balance the portal reports afterwards.
func (c *Client) SendSMS(ctx context.Context, token, prefix, subscriber, text string) (int, error) {
	target := strings.NewReplacer(
		"{session}", token,
		"{prefix}", prefix,
		"{number}", subscriber,
		"{data}", escape(text),
	).Replace(c.endpoints.Send)

	_, body, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, sms.CommunicationError("error sending sms", err)
	}

	var resp struct {
		MsgLeft *count `json:"msg_left"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, sms.ResponseError("error parsing response", fmt.Errorf("%s: %w", excerpt(body), err))
	}
	if resp.MsgLeft == nil {
		return 0, sms.ResponseError("incorrect response", fmt.Errorf("%s", excerpt(body)))
	}
	return int(*resp.MsgLeft), nil
}

// logout ends any session the server still holds. The status is ignored;
// only a failed request is an error.
func (c *Client) logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoints.Logout, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	c.log.Debug("logged out", "status", resp.StatusCode)
	return nil
}

// do performs a request and returns the final URL after redirects and the
// response body. Statuses of 400 and above are errors.
func (c *Client) do(ctx context.Context, method, target string, body io.Reader) (*url.URL, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", target, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, nil, fmt.Errorf("%s %s: unexpected status %s", method, target, resp.Status)
	}
	c.log.Debug("portal request", "method", method, "url", resp.Request.URL.Redacted(), "status", resp.StatusCode)
	return resp.Request.URL, data, nil
}

func parseBalance(body []byte) (int, error) {
	m := balancePattern.FindSubmatch(body)
	if m == nil {
		return 0, sms.ResponseError("could not parse balance")
	}
	used, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, sms.ResponseError("could not parse balance", err)
	}
	total, err := strconv.Atoi(string(m[2]))
	if err != nil {
		return 0, sms.ResponseError("could not parse balance", err)
	}
	return total - used, nil
}

// escape percent-encodes text as UTF-8, spaces included.
func escape(text string) string {
	return strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func excerpt(body []byte) string {
	const n = 100
	if len(body) > n {
		return strconv.Quote(string(body[:n])) + "..."
	}
	return strconv.Quote(string(body))
}

// count is a message count that the portal encodes either as a JSON number
// or as a string holding one.
type count int

func (c *count) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("msg_left: %w", err)
	}
	*c = count(n)
	return nil
}
