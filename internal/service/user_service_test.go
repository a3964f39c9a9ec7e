package service

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	created, err := svc.Register(context.Background(), RegisterUserRequest{
		Username: "dilshod", Phone: "+998901112233", Password: "s3cret-pass", Role: "agent",
	})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if created.Username != "dilshod" || created.Role != "agent" {
		t.Errorf("registered user = %+v", created)
	}

	token, err := svc.Login(context.Background(), LoginRequest{Username: "dilshod", Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if token.Token == "" {
		t.Error("login returned an empty token")
	}
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), RegisterUserRequest{
		Username: "admin", Password: "first-pass", Role: "admin",
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	_, err := svc.Register(context.Background(), RegisterUserRequest{
		Username: "admin", Password: "other-pass", Role: "agent",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate Register() error = %v, want ErrValidation", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewUserService(newFakeUserRepo())

	if _, err := svc.Register(context.Background(), RegisterUserRequest{
		Username: "dilshod", Password: "s3cret-pass", Role: "agent",
	}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	if _, err := svc.Login(context.Background(), LoginRequest{Username: "dilshod", Password: "wrong"}); err == nil {
		t.Error("login with wrong password succeeded")
	}
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "s3cret-pass"}); err == nil {
		t.Error("login with unknown username succeeded")
	}
}
