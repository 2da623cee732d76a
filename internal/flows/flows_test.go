package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/bookly-de/customer_portal/internal/api"
	"github.com/bookly-de/customer_portal/internal/config"
	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/identity"
	"github.com/bookly-de/customer_portal/internal/logging"
	"github.com/bookly-de/customer_portal/internal/notification"
	"github.com/bookly-de/customer_portal/internal/otp"
	"github.com/bookly-de/customer_portal/internal/server"
	"github.com/bookly-de/customer_portal/internal/session"
	"github.com/bookly-de/customer_portal/internal/validation"
	"github.com/bookly-de/customer_portal/internal/verification"
)

type portal struct {
	srv      *server.Server
	client   *customer.Client
	store    *session.Store
	identity *identity.Service
	sms      *notification.Recorder
}

func newPortal(t *testing.T, acceptAny bool) *portal {
	t.Helper()
	cfg := config.Config{
		AppEnv:       "test",
		JWTSecret:    "test-secret",
		TokenTTL:     time.Hour,
		OTPTTL:       5 * time.Minute,
		OTPAcceptAny: acceptAny,
		SMSRateLimit: 5,
	}
	sms := notification.NewRecorder()
	srv, err := server.New(cfg, nil, logging.Discard(), server.WithNotifier(sms), server.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx := context.Background()
	store, err := session.Open(ctx, session.NewMemoryBackend(""), logging.Discard())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	gw := api.New("http://stub.local", store, api.WithDoer(srv.Transport()), api.WithLogger(logging.Discard()))
	client := customer.NewClient(gw, "de")

	ids := identity.NewService(client, store, identity.WithLogger(logging.Discard()))
	ids.Start(ctx)
	t.Cleanup(ids.Close)

	return &portal{srv: srv, client: client, store: store, identity: ids, sms: sms}
}

func (p *portal) otp() *otp.Controller {
	return otp.New(p.client, otp.WithLogger(logging.Discard()))
}

func (p *portal) lastCode(t *testing.T, phoneE164 string) string {
	t.Helper()
	msg, ok := p.sms.Last(phoneE164)
	if !ok {
		t.Fatalf("no SMS sent to %s", phoneE164)
	}
	return verification.CodeFromMessage(msg.Body)
}

func (p *portal) seed(t *testing.T) {
	t.Helper()
	if _, err := p.srv.SeedDemo(context.Background(), "user@example.com", "secret1", "+491571234567"); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestRegistrationEndToEnd(t *testing.T) {
	p := newPortal(t, true)
	ctx := context.Background()
	reg := NewRegistration(p.client, p.identity, p.otp())

	form := RegistrationForm{
		Name:            "Erika",
		Email:           "erika@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Phone:           "0170 1234567",
	}
	if err := reg.Submit(ctx, form); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if reg.State() != otp.ChallengeSent {
		t.Fatalf("expected challenge-sent, got %s", reg.State())
	}
	draft, ok := reg.Draft()
	if !ok || draft.PhoneE164 != "+491701234567" {
		t.Fatalf("unexpected draft %+v", draft)
	}

	if err := reg.Resend(ctx); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if again, _ := reg.Draft(); again != draft {
		t.Fatalf("resend changed the draft: %+v", again)
	}

	if err := reg.Confirm(ctx, "000000"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if p.store.Get() == "" || p.identity.Token() == "" {
		t.Fatal("expected session established")
	}
	if c := p.identity.Customer(); c == nil || c.Email != form.Email {
		t.Fatalf("unexpected customer %+v", c)
	}
	if _, ok := reg.Draft(); ok {
		t.Fatal("draft must be discarded after registration")
	}

	p.identity.Wait()
	if !p.identity.Authenticated() {
		t.Fatal("reconciliation should keep the session")
	}
}

func TestRegistrationConfirmWithoutDraft(t *testing.T) {
	p := newPortal(t, true)
	reg := NewRegistration(p.client, p.identity, p.otp())

	if err := reg.Confirm(context.Background(), "000000"); !errors.Is(err, ErrDraftExpired) {
		t.Fatalf("expected ErrDraftExpired, got %v", err)
	}
	if ErrDraftExpired.Error() != "Session expired, please start again." {
		t.Fatalf("unexpected message %q", ErrDraftExpired.Error())
	}
}

func TestRegistrationPrecheckBlocksDuplicates(t *testing.T) {
	p := newPortal(t, true)
	p.seed(t)
	reg := NewRegistration(p.client, p.identity, p.otp())

	err := reg.Submit(context.Background(), RegistrationForm{
		Name: "Dup", Email: "user@example.com", Password: "secret1", ConfirmPassword: "secret1", Phone: "01709999999",
	})
	if err == nil || err.Error() != "Email already registered" {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	if len(p.sms.Messages()) != 0 {
		t.Fatal("no SMS may be sent for a duplicate registration")
	}
	if reg.State() != otp.Collecting {
		t.Fatalf("expected collecting, got %s", reg.State())
	}
}

func TestRegistrationRejectedReopensChallenge(t *testing.T) {
	p := newPortal(t, true)
	ctx := context.Background()
	reg := NewRegistration(p.client, p.identity, p.otp())

	if err := reg.Submit(ctx, RegistrationForm{
		Name: "Late", Email: "user@example.com", Password: "secret1", ConfirmPassword: "secret1", Phone: "01709999999",
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	p.seed(t)

	if err := reg.Confirm(ctx, "000000"); err == nil {
		t.Fatal("expected registration to be rejected")
	}
	if reg.State() != otp.ChallengeSent {
		t.Fatalf("expected challenge reopened, got %s", reg.State())
	}
	if _, ok := reg.Draft(); !ok {
		t.Fatal("draft must survive a rejected registration")
	}
	if p.store.Get() != "" {
		t.Fatal("no session may be stored")
	}
}

func TestRegistrationValidatesLocally(t *testing.T) {
	p := newPortal(t, true)
	reg := NewRegistration(p.client, p.identity, p.otp())
	ctx := context.Background()

	cases := []RegistrationForm{
		{Name: "", Email: "a@b.de", Password: "secret1", ConfirmPassword: "secret1", Phone: "0170"},
		{Name: "A", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1", Phone: "0170"},
		{Name: "A", Email: "a@b.de", Password: "123", ConfirmPassword: "123", Phone: "0170"},
		{Name: "A", Email: "a@b.de", Password: "secret1", ConfirmPassword: "secret2", Phone: "0170"},
		{Name: "A", Email: "a@b.de", Password: "secret1", ConfirmPassword: "secret1", Phone: " "},
	}
	for i, form := range cases {
		if err := reg.Submit(ctx, form); !validation.IsValidation(err) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
	if len(p.sms.Messages()) != 0 {
		t.Fatal("invalid forms must not reach the server")
	}
}

func TestPhoneUpdateEndToEnd(t *testing.T) {
	p := newPortal(t, false)
	p.seed(t)
	ctx := context.Background()
	if err := NewSignIn(p.identity).Submit(ctx, "user@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	flow := NewPhoneUpdate(p.client, p.identity, p.otp())
	if err := flow.Start(ctx, "0170 5555555"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := flow.Confirm(ctx, p.lastCode(t, "+491705555555")); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if c := p.identity.Customer(); c == nil || c.PhoneE164 != "+491705555555" {
		t.Fatalf("expected refreshed profile with new phone, got %+v", c)
	}
	if flow.State() != otp.Collecting {
		t.Fatalf("expected flow reset, got %s", flow.State())
	}
}

func TestPasswordResetEndToEnd(t *testing.T) {
	p := newPortal(t, false)
	p.seed(t)
	ctx := context.Background()

	flow := NewPasswordReset(p.client, p.otp())
	if err := flow.Start(ctx, "0157 1234567"); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := p.lastCode(t, "+491571234567")

	if err := flow.Confirm(ctx, code, "123", "123"); !validation.IsValidation(err) {
		t.Fatalf("expected local password check, got %v", err)
	}
	if flow.State() != otp.ChallengeSent {
		t.Fatalf("local failure must keep the challenge, got %s", flow.State())
	}

	if err := flow.Confirm(ctx, code, "newpass1", "newpass1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	signIn := NewSignIn(p.identity)
	if err := signIn.Submit(ctx, "user@example.com", "secret1"); err == nil {
		t.Fatal("old password must stop working")
	}
	if err := signIn.Submit(ctx, "user@example.com", "newpass1"); err != nil {
		t.Fatalf("sign in with new password: %v", err)
	}
}

func TestProfileEndToEnd(t *testing.T) {
	p := newPortal(t, true)
	p.seed(t)
	ctx := context.Background()
	if err := NewSignIn(p.identity).Submit(ctx, "user@example.com", "secret1"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	profile := NewProfile(p.client, p.identity)

	if err := profile.SaveName(ctx, "  "); !validation.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := profile.SaveName(ctx, "Renamed"); err != nil {
		t.Fatalf("save name: %v", err)
	}
	if c := p.identity.Customer(); c == nil || c.Name != "Renamed" {
		t.Fatalf("expected refreshed name, got %+v", c)
	}

	if err := profile.ChangePassword(ctx, "secret1", "secret2", "secret3"); !validation.IsValidation(err) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if err := profile.ChangePassword(ctx, "", "secret2", "secret2"); !validation.IsValidation(err) {
		t.Fatalf("expected current password required, got %v", err)
	}
	if err := profile.ChangePassword(ctx, "secret1", "secret2", "secret2"); err != nil {
		t.Fatalf("change password: %v", err)
	}
}

func TestSignInValidatesLocally(t *testing.T) {
	p := newPortal(t, true)
	signIn := NewSignIn(p.identity)
	ctx := context.Background()

	if err := signIn.Submit(ctx, "bad", "secret1"); !validation.IsValidation(err) {
		t.Fatalf("expected email validation, got %v", err)
	}
	if err := signIn.Submit(ctx, "user@example.com", ""); !validation.IsValidation(err) {
		t.Fatalf("expected password required, got %v", err)
	}
	err := signIn.Submit(ctx, "user@example.com", "secret1")
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("expected server message, got %v", err)
	}
	if p.identity.Authenticated() {
		t.Fatal("failed sign-in must not authenticate")
	}
}

type recordingResetter struct {
	phone, code, otpToken, password string
}

func (r *recordingResetter) ResetPassword(_ context.Context, phoneE164, code, otpToken, newPassword string) error {
	r.phone, r.code, r.otpToken, r.password = phoneE164, code, otpToken, newPassword
	return nil
}

func TestPasswordResetForwardsVerifiedCode(t *testing.T) {
	p := newPortal(t, false)
	p.seed(t)
	ctx := context.Background()

	rec := &recordingResetter{}
	flow := NewPasswordReset(rec, p.otp())
	if err := flow.Start(ctx, "0157 1234567"); err != nil {
		t.Fatalf("start: %v", err)
	}
	code := p.lastCode(t, "+491571234567")
	if err := flow.Confirm(ctx, code, "newpass1", "newpass1"); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if rec.phone != "+491571234567" || rec.code != code || rec.password != "newpass1" {
		t.Fatalf("unexpected reset call %+v", rec)
	}
	if rec.otpToken == "" {
		t.Fatal("expected the otpToken from the verification check")
	}
}
