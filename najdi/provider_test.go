package najdi_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"i4.energy/across/smsdeliver/najdi"
	"i4.energy/across/smsdeliver/number"
	"i4.energy/across/smsdeliver/sms"
)

func newProvider(t *testing.T, portal najdi.Portal, retries int) *najdi.Provider {
	t.Helper()
	config, err := najdi.NewConfigBuilder().
		WithPortal(portal).
		WithRetries(retries).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	p, err := najdi.New(config)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p
}

func mustSplit(t *testing.T, raw string) number.Number {
	t.Helper()
	n, err := number.SplitNational(raw)
	if err != nil {
		t.Fatalf("SplitNational(%q): %v", raw, err)
	}
	return n
}

var session = najdi.Session{Token: token, Balance: 10}

func TestProviderSend(t *testing.T) {
	ctx := context.Background()

	t.Run("logs in then sends", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(session, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "test").Return(9, nil),
		)

		p := newProvider(t, portal, 1)
		balance, err := p.Send(ctx, mustSplit(t, "041928491"), "test")
		if err != nil {
			t.Fatalf("Send() error: %v", err)
		}
		if balance != 9 {
			t.Errorf("balance = %v, want 9", balance)
		}
	})

	t.Run("login fails once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(najdi.Session{}, sms.AuthError("rejected")),
			portal.EXPECT().Login(gomock.Any()).Return(session, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "test").Return(9, nil),
		)

		p := newProvider(t, portal, 1)
		balance, err := p.Send(ctx, mustSplit(t, "041928491"), "test")
		if err != nil {
			t.Fatalf("Send() error: %v", err)
		}
		if balance != 9 {
			t.Errorf("balance = %v, want 9", balance)
		}
	})

	t.Run("login keeps failing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(najdi.Session{}, sms.AuthError("rejected")),
			portal.EXPECT().Login(gomock.Any()).Return(najdi.Session{}, sms.AuthError("rejected")),
		)

		p := newProvider(t, portal, 1)
		_, err := p.Send(ctx, mustSplit(t, "041928491"), "test")
		if !errors.Is(err, sms.ErrAuth) {
			t.Errorf("Send() error = %v, want auth error", err)
		}
	})

	t.Run("send keeps failing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(session, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "test").Return(0, sms.SendError("failed")),
			portal.EXPECT().Login(gomock.Any()).Return(session, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "test").Return(0, sms.SendError("failed")),
		)

		p := newProvider(t, portal, 1)
		_, err := p.Send(ctx, mustSplit(t, "041928491"), "test")
		if !errors.Is(err, sms.ErrSend) {
			t.Errorf("Send() error = %v, want send error", err)
		}
	})

	t.Run("out of balance", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		empty := najdi.Session{Token: token}
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(empty, nil),
			portal.EXPECT().Login(gomock.Any()).Return(empty, nil),
		)

		p := newProvider(t, portal, 1)
		_, err := p.Send(ctx, mustSplit(t, "041928491"), "test")
		if !errors.Is(err, sms.SendError("out of balance")) {
			t.Errorf("Send() error = %v, want out of balance", err)
		}
	})

	t.Run("reuses the session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(session, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "one").Return(9, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "two").Return(8, nil),
		)

		p := newProvider(t, portal, 2)
		to := mustSplit(t, "041928491")
		if _, err := p.Send(ctx, to, "one"); err != nil {
			t.Fatalf("first Send() error: %v", err)
		}
		balance, err := p.Send(ctx, to, "two")
		if err != nil {
			t.Fatalf("second Send() error: %v", err)
		}
		if balance != 8 {
			t.Errorf("balance = %v, want 8", balance)
		}
	})

	t.Run("non provider errors are not retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)
		gomock.InOrder(
			portal.EXPECT().Login(gomock.Any()).Return(session, nil),
			portal.EXPECT().SendSMS(gomock.Any(), token, "41", "928491", "test").Return(0, context.DeadlineExceeded),
		)

		p := newProvider(t, portal, 2)
		_, err := p.Send(ctx, mustSplit(t, "041928491"), "test")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Send() error = %v, want deadline exceeded", err)
		}
	})

	t.Run("cancellation during retry delay", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		portal := najdi.NewMockPortal(ctrl)

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()
		portal.EXPECT().Login(gomock.Any()).DoAndReturn(func(context.Context) (najdi.Session, error) {
			cancel()
			return najdi.Session{}, sms.CommunicationError("unreachable")
		})

		config, err := najdi.NewConfigBuilder().
			WithPortal(portal).
			WithRetryDelay(time.Hour).
			Build()
		if err != nil {
			t.Fatalf("Build() error: %v", err)
		}
		p, _ := najdi.New(config)

		_, err = p.Send(cctx, mustSplit(t, "041928491"), "test")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Send() error = %v, want context.Canceled", err)
		}
	})
}

func TestProviderBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	portal := najdi.NewMockPortal(ctrl)
	portal.EXPECT().Login(gomock.Any()).Return(najdi.Session{Token: token, Balance: 40}, nil).Times(1)

	p := newProvider(t, portal, 2)
	for range 2 {
		balance, err := p.Balance(context.Background())
		if err != nil {
			t.Fatalf("Balance() error: %v", err)
		}
		if balance != 40 {
			t.Errorf("Balance() = %v, want 40", balance)
		}
	}
}

func TestProviderParseNumber(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := newProvider(t, najdi.NewMockPortal(ctrl), 2)

	n, err := p.ParseNumber("+38641928491")
	if err != nil {
		t.Fatalf("ParseNumber() error: %v", err)
	}
	if n.Prefix != "41" || n.Subscriber != "928491" {
		t.Errorf("ParseNumber() = %+v", n)
	}
	if _, err := p.ParseNumber("+4915112345678"); !errors.Is(err, sms.ErrInput) {
		t.Errorf("ParseNumber() error = %v, want input error", err)
	}
}

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		builder *najdi.ConfigBuilder
		want    error
	}{
		{"no credentials", najdi.NewConfigBuilder(), najdi.ErrInvalidCredentials},
		{"empty password", najdi.NewConfigBuilder().WithCredentials("test", ""), najdi.ErrInvalidCredentials},
		{"long username", najdi.NewConfigBuilder().WithCredentials(strings.Repeat("u", 51), "test"), najdi.ErrInvalidCredentials},
		{"negative retries", najdi.NewConfigBuilder().WithCredentials("test", "test").WithRetries(-1), najdi.ErrInvalidRetries},
		{"valid", najdi.NewConfigBuilder().WithCredentials("test", "test"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.builder.Build(); err != tt.want {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}
