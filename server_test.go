package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"i4.energy/across/smsdeliver/delivery"
	"i4.energy/across/smsdeliver/metrics"
	"i4.energy/across/smsdeliver/number"
	"i4.energy/across/smsdeliver/sms"
)

var dest = number.Number{Prefix: "41", Subscriber: "928491", E164: "+38641928491"}

func newTestServer(p delivery.Provider) *Server {
	return &Server{
		Logger: slog.New(slog.DiscardHandler),
		Engine: delivery.New(p),
	}
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleSMS(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	gomock.InOrder(
		p.EXPECT().ParseNumber("041928491").Return(dest, nil),
		p.EXPECT().Send(gomock.Any(), dest, "hello").Return(sms.Balance(39), nil),
	)

	rec := do(newTestServer(p), http.MethodPost, "/sms", `{"to":"041928491","message":"hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got, want := strings.TrimSpace(rec.Body.String()), `{"balance":39}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHandleSMSLong(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	gomock.InOrder(
		p.EXPECT().ParseNumber("041928491").Return(dest, nil),
		p.EXPECT().Send(gomock.Any(), dest, "0/2 "+strings.Repeat("a", 156)).Return(sms.Balance(10), nil),
		p.EXPECT().Send(gomock.Any(), dest, "1/2 "+strings.Repeat("a", 5)).Return(sms.Balance(9), nil),
	)

	body := fmt.Sprintf(`{"to":"041928491","message":%q,"long":true}`, strings.Repeat("a", 161))
	rec := do(newTestServer(p), http.MethodPost, "/sms", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got, want := strings.TrimSpace(rec.Body.String()), `{"balance":9}`; got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestHandleSMSSilentUnsupported(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)

	rec := do(newTestServer(p), http.MethodPost, "/sms", `{"to":"041928491","message":"ping","silent":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleSMSBadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"to":`},
		{"missing to", `{"message":"hello"}`},
		{"missing message", `{"to":"041928491"}`},
		{"silent and long", `{"to":"041928491","message":"hello","silent":true,"long":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			rec := do(newTestServer(delivery.NewMockProvider(ctrl)), http.MethodPost, "/sms", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !strings.Contains(rec.Body.String(), `"message"`) {
				t.Errorf("body = %s, want an error message", rec.Body)
			}
		})
	}
}

func TestHandleSMSProviderErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", sms.AuthError("error logging in, incorrect username or password"), http.StatusBadGateway},
		{"response", sms.ResponseError("incorrect response"), http.StatusBadGateway},
		{"communication", sms.CommunicationError("error in communication with service"), http.StatusServiceUnavailable},
		{"send", sms.SendError("out of balance"), http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := delivery.NewMockProvider(ctrl)
			p.EXPECT().ParseNumber(gomock.Any()).Return(dest, nil)
			p.EXPECT().Send(gomock.Any(), dest, "hello").Return(sms.Balance(0), tt.err)

			rec := do(newTestServer(p), http.MethodPost, "/sms", `{"to":"041928491","message":"hello"}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandleSMSBadNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	p.EXPECT().ParseNumber("12").Return(number.Number{}, sms.InputError("number formatted incorrectly"))

	rec := do(newTestServer(p), http.MethodPost, "/sms", `{"to":"12","message":"hello"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleBalance(t *testing.T) {
	tests := []struct {
		name    string
		balance sms.Balance
		want    string
	}{
		{"limited", 40, `{"balance":40}`},
		{"unlimited", sms.Unlimited, `{"balance":"unlimited"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			p := delivery.NewMockProvider(ctrl)
			p.EXPECT().Balance(gomock.Any()).Return(tt.balance, nil)

			rec := do(newTestServer(p), http.MethodGet, "/balance", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestHandleBalanceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	p.EXPECT().Balance(gomock.Any()).Return(sms.Balance(0), sms.CommunicationError("error in communication with service"))

	rec := do(newTestServer(p), http.MethodGet, "/balance", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := do(newTestServer(delivery.NewMockProvider(ctrl)), http.MethodGet, "/sms", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

func TestRequestID(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	p.EXPECT().Balance(gomock.Any()).Return(sms.Balance(1), nil).Times(2)
	s := newTestServer(p)

	rec := do(s, http.MethodGet, "/balance", "")
	if id := rec.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a UUID", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Request-ID"); id != "abc-123" {
		t.Errorf("X-Request-ID = %q, want the caller's id", id)
	}
}

func TestMetricsRoute(t *testing.T) {
	ctrl := gomock.NewController(t)
	collector := metrics.New("najdi")
	p := delivery.NewMockProvider(ctrl)
	p.EXPECT().Balance(gomock.Any()).Return(sms.Balance(7), nil)

	s := &Server{
		Logger:  slog.New(slog.DiscardHandler),
		Engine:  delivery.New(p, delivery.WithRecorder(collector)),
		Metrics: collector.Handler(),
	}
	do(s, http.MethodGet, "/balance", "")

	rec := do(s, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if want := `sms_balance{provider="najdi"} 7`; !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics do not contain %q:\n%s", want, rec.Body)
	}
}

func TestMetricsRouteDisabled(t *testing.T) {
	ctrl := gomock.NewController(t)
	rec := do(newTestServer(delivery.NewMockProvider(ctrl)), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	p.EXPECT().Balance(gomock.Any()).Return(sms.Balance(3), nil)
	s := newTestServer(p)
	s.Token = "secret"

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/balance", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	if rec := do(s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want %d without a token", rec.Code, http.StatusOK)
	}
}

func TestRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := delivery.NewMockProvider(ctrl)
	p.EXPECT().ParseNumber(gomock.Any()).Return(dest, nil)
	p.EXPECT().Send(gomock.Any(), dest, "hello").Return(sms.Balance(5), nil)
	s := newTestServer(p)
	s.Limiter = rate.NewLimiter(rate.Every(time.Hour), 1)

	body := `{"to":"041928491","message":"hello"}`
	if rec := do(s, http.MethodPost, "/sms", body); rec.Code != http.StatusOK {
		t.Fatalf("first status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := do(s, http.MethodPost, "/sms", body); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
