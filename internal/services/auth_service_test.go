package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Navideft74/Arses-club/internal/models"
)

const testMobile = "09121234567"

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB, *fakeSender) {
	t.Helper()
	db := newTestDB(t)
	sender := &fakeSender{}
	svc := NewAuthService(db, sender, zap.NewNop())
	return svc, db, sender
}

func loadUser(t *testing.T, db *gorm.DB, mobile string) models.User {
	t.Helper()
	var user models.User
	if err := db.Preload("Profile").Where("mobile = ?", mobile).First(&user).Error; err != nil {
		t.Fatalf("load user %s: %v", mobile, err)
	}
	return user
}

func TestRequestOTPSignsUpNewMobile(t *testing.T) {
	svc, db, sender := newTestAuthService(t)

	user, err := svc.RequestOTP(context.Background(), testMobile)
	if err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if user.Mobile != testMobile {
		t.Errorf("mobile = %q; want %q", user.Mobile, testMobile)
	}

	stored := loadUser(t, db, testMobile)
	if stored.OTP == nil || stored.OTPCreated == nil {
		t.Fatal("expected OTP and OTPCreated to be set together")
	}
	if *stored.OTP < 1000 || *stored.OTP > 9999 {
		t.Errorf("OTP = %d; want a 4-digit code", *stored.OTP)
	}
	if stored.Profile == nil {
		t.Fatal("expected a profile to be created at signup")
	}
	if stored.Profile.Complete() {
		t.Error("fresh profile should be incomplete")
	}

	sent := sender.deliveries()
	if len(sent) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(sent))
	}
	if sent[0].code != *stored.OTP {
		t.Errorf("delivered code %d != stored code %d", sent[0].code, *stored.OTP)
	}
}

func TestRequestOTPSuppressedWhilePending(t *testing.T) {
	svc, db, sender := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("first RequestOTP: %v", err)
	}
	first := loadUser(t, db, testMobile)

	if _, err := svc.RequestOTP(ctx, testMobile); !errors.Is(err, ErrOTPAlreadySent) {
		t.Fatalf("second RequestOTP err = %v; want ErrOTPAlreadySent", err)
	}

	second := loadUser(t, db, testMobile)
	if *second.OTP != *first.OTP || !second.OTPCreated.Equal(*first.OTPCreated) {
		t.Error("pending code changed by a suppressed request")
	}
	if len(sender.deliveries()) != 1 {
		t.Errorf("expected 1 delivery, got %d", len(sender.deliveries()))
	}
}

func TestRequestOTPReissuesAfterWindow(t *testing.T) {
	svc, db, sender := newTestAuthService(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("first RequestOTP: %v", err)
	}

	svc.now = func() time.Time { return base.Add(models.OTPTTL) }
	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP after window: %v", err)
	}

	stored := loadUser(t, db, testMobile)
	if !stored.OTPCreated.Equal(base.Add(models.OTPTTL)) {
		t.Error("expected a fresh code to be issued after the window")
	}
	if len(sender.deliveries()) != 2 {
		t.Errorf("expected 2 deliveries, got %d", len(sender.deliveries()))
	}
}

func TestRequestOTPDeliveryFailureKeepsCode(t *testing.T) {
	svc, db, sender := newTestAuthService(t)
	sender.err = errors.New("gateway down")
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP with failing sender: %v", err)
	}

	stored := loadUser(t, db, testMobile)
	if stored.OTP == nil {
		t.Fatal("expected code to stay valid despite failed delivery")
	}

	// The undelivered code still verifies.
	user, _, err := svc.VerifyOTP(ctx, testMobile, strconv.Itoa(*stored.OTP))
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if user.ID != stored.ID {
		t.Errorf("verified user %d; want %d", user.ID, stored.ID)
	}
}

func TestRequestOTPEmptyMobile(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	if _, err := svc.RequestOTP(context.Background(), "   "); !errors.Is(err, ErrMobileRequired) {
		t.Fatalf("err = %v; want ErrMobileRequired", err)
	}
}

func TestVerifyOTPHappyPathClearsCode(t *testing.T) {
	svc, db, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := strconv.Itoa(*loadUser(t, db, testMobile).OTP)

	user, incomplete, err := svc.VerifyOTP(ctx, testMobile, code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if !incomplete {
		t.Error("fresh user should be signaled as profile-incomplete")
	}
	if user.OTP != nil || user.OTPCreated != nil {
		t.Error("expected code and timestamp cleared together on success")
	}

	stored := loadUser(t, db, testMobile)
	if stored.OTP != nil || stored.OTPCreated != nil {
		t.Error("expected cleared code to be persisted")
	}

	// Replay with the same code must fail.
	if _, _, err := svc.VerifyOTP(ctx, testMobile, code); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("replay err = %v; want ErrOTPMismatch", err)
	}
}

func TestVerifyOTPExpiredDespiteMatch(t *testing.T) {
	svc, db, _ := newTestAuthService(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	code := strconv.Itoa(*loadUser(t, db, testMobile).OTP)

	svc.now = func() time.Time { return base.Add(models.OTPTTL) }
	if _, _, err := svc.VerifyOTP(ctx, testMobile, code); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("err = %v; want ErrOTPMismatch for expired code", err)
	}

	// Failure leaves the stored code untouched.
	stored := loadUser(t, db, testMobile)
	if stored.OTP == nil {
		t.Error("expected stored code to remain after failed verification")
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	svc, db, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	stored := loadUser(t, db, testMobile)
	wrong := 1000 + (*stored.OTP-1000+1)%9000

	if _, _, err := svc.VerifyOTP(ctx, testMobile, strconv.Itoa(wrong)); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("err = %v; want ErrOTPMismatch", err)
	}

	after := loadUser(t, db, testMobile)
	if after.OTP == nil || *after.OTP != *stored.OTP {
		t.Error("expected stored code to remain after mismatch")
	}
}

func TestVerifyOTPInvalidFormat(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	if _, _, err := svc.VerifyOTP(ctx, testMobile, "12ab"); !errors.Is(err, ErrInvalidOTPFormat) {
		t.Fatalf("err = %v; want ErrInvalidOTPFormat", err)
	}
}

func TestVerifyOTPMissingSessionBinding(t *testing.T) {
	svc, _, _ := newTestAuthService(t)
	if _, _, err := svc.VerifyOTP(context.Background(), "", "1234"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v; want ErrSessionExpired", err)
	}
}

func TestCompleteProfile(t *testing.T) {
	svc, db, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	user := loadUser(t, db, testMobile)

	tests := []struct {
		name    string
		first   string
		last    string
		wantErr error
	}{
		{name: "empty first name", first: "", last: "Rezaei", wantErr: ErrNameRequired},
		{name: "whitespace last name", first: "Ali", last: "   ", wantErr: ErrNameRequired},
		{name: "both names", first: "  Ali ", last: " Rezaei "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CompleteProfile(ctx, user.ID, tt.first, tt.last)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CompleteProfile: %v", err)
			}
		})
	}

	stored := loadUser(t, db, testMobile)
	if stored.Profile.FirstName != "Ali" || stored.Profile.LastName != "Rezaei" {
		t.Errorf("profile = %q %q; want trimmed Ali Rezaei", stored.Profile.FirstName, stored.Profile.LastName)
	}
	if !stored.Profile.Complete() {
		t.Error("profile should be complete")
	}
}

func TestVerifyAfterProfileCompletion(t *testing.T) {
	svc, db, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.RequestOTP(ctx, testMobile); err != nil {
		t.Fatalf("RequestOTP: %v", err)
	}
	user := loadUser(t, db, testMobile)
	if err := svc.CompleteProfile(ctx, user.ID, "Ali", "Rezaei"); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}

	code := strconv.Itoa(*loadUser(t, db, testMobile).OTP)
	_, incomplete, err := svc.VerifyOTP(ctx, testMobile, code)
	if err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}
	if incomplete {
		t.Error("completed profile should not be signaled as incomplete")
	}
}
