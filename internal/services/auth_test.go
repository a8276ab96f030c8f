package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vistascan/vistascan-backend/internal/logger"
	"github.com/vistascan/vistascan-backend/internal/types"
)

func newTestAuthService(t *testing.T) (AuthService, *fakeUserRepo) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	users := newFakeUserRepo()
	return NewAuthService(nil, log, users, "test-secret", time.Hour), users
}

func registerRequest() RegisterRequest {
	return RegisterRequest{
		Username:  "jdoe",
		Email:     "JDoe@Example.com",
		Password:  "hunter22",
		FullName:  "Jane Doe",
		Birthdate: "1990-04-12",
		Gender:    types.GenderFemale,
	}
}

func TestRegisterLoginParseRoundTrip(t *testing.T) {
	auth, _ := newTestAuthService(t)

	registered, err := auth.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Role != types.RolePatient {
		t.Fatalf("default role: want=%s got=%s", types.RolePatient, registered.User.Role)
	}
	if registered.User.Email != "jdoe@example.com" {
		t.Fatalf("email must be lowercased: got=%s", registered.User.Email)
	}
	if registered.AccessToken == "" {
		t.Fatalf("registration must issue an access token")
	}

	loggedIn, err := auth.Login(context.Background(), "jdoe", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := auth.ParseToken(loggedIn.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID.String() != registered.User.ID {
		t.Fatalf("token subject: want=%s got=%s", registered.User.ID, claims.UserID)
	}
	if claims.Role != types.RolePatient {
		t.Fatalf("token role: want=%s got=%s", types.RolePatient, claims.Role)
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	auth, _ := newTestAuthService(t)
	if _, err := auth.Register(context.Background(), registerRequest()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	second := registerRequest()
	second.Email = "other@example.com"
	_, err := auth.Register(context.Background(), second)
	if !errors.Is(err, types.ErrAlreadyExists) {
		t.Fatalf("duplicate username: want=ErrAlreadyExists got=%v", err)
	}
}

func TestRegisterRejectsBadBirthdate(t *testing.T) {
	auth, _ := newTestAuthService(t)
	req := registerRequest()
	req.Birthdate = "12/04/1990"
	if _, err := auth.Register(context.Background(), req); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("bad birthdate: want=ErrValidation got=%v", err)
	}
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	auth, _ := newTestAuthService(t)
	req := registerRequest()
	req.Role = "SUPERUSER"
	if _, err := auth.Register(context.Background(), req); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("unknown role: want=ErrValidation got=%v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	auth, _ := newTestAuthService(t)
	if _, err := auth.Register(context.Background(), registerRequest()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := auth.Login(context.Background(), "jdoe", "wrong")
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("wrong password: want=ErrUnauthorized got=%v", err)
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	auth, _ := newTestAuthService(t)
	_, err := auth.Login(context.Background(), "ghost", "whatever")
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("unknown user: want=ErrUnauthorized got=%v", err)
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	auth, _ := newTestAuthService(t)
	registered, err := auth.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	other := NewAuthService(nil, log, newFakeUserRepo(), "different-secret", time.Hour)
	if _, err := other.ParseToken(registered.AccessToken); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("token signed with foreign secret: want=ErrUnauthorized got=%v", err)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	auth, _ := newTestAuthService(t)
	if _, err := auth.ParseToken("not-a-jwt"); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("garbage token: want=ErrUnauthorized got=%v", err)
	}
}
