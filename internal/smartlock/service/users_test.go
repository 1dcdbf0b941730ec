package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/BrandonDHaskell/smartlock/internal/smartlock/hub"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/service"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/store"
	"github.com/BrandonDHaskell/smartlock/internal/smartlock/types"
)

type fakeIssuer struct{ err error }

func (f fakeIssuer) Issue(userID string, role types.Role) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "tok-" + userID + "-" + string(role), nil
}

func newUsers(h *harness, issuer service.TokenIssuer) *service.UserService {
	return service.NewUserService(h.users, h.router, issuer, testDeviceID, zerolog.Nop())
}

func TestRegister_BroadcastsAddUser(t *testing.T) {
	h := newHarness(t, true)
	_, hw1 := h.connect(hub.ClassHardware)
	_, hw2 := h.connect(hub.ClassHardware)
	_, web := h.connect(hub.ClassWeb)

	resp, err := newUsers(h, fakeIssuer{}).Register(context.Background(), types.RegisterRequest{
		Email:    "ada@example.com",
		FullName: "Ada",
		Pincode:  "1234",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.BiometricID != 1 || resp.User.DeviceID != testDeviceID {
		t.Errorf("unexpected user %+v", resp.User)
	}
	if resp.Token != "tok-"+resp.User.ID+"-lecturer" {
		t.Errorf("unexpected token %q", resp.Token)
	}
	for _, c := range []*fakeConn{hw1, hw2} {
		if f := c.Frames(); len(f) != 1 || f[0] != "addUser:1:1234" {
			t.Errorf("controller frames %v", f)
		}
	}
	if f := web.Frames(); len(f) != 0 {
		t.Errorf("dashboard must not receive pins, got %v", f)
	}
}

func TestRegister_Conflict(t *testing.T) {
	h := newHarness(t, true)
	svc := newUsers(h, fakeIssuer{})
	ctx := context.Background()

	req := types.RegisterRequest{Email: "ada@example.com", FullName: "Ada", Pincode: "1234"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	req.Email = "ADA@example.com"
	if _, err := svc.Register(ctx, req); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	h := newHarness(t, true)
	svc := newUsers(h, fakeIssuer{})

	cases := []struct {
		name string
		req  types.RegisterRequest
		want error
	}{
		{"no email", types.RegisterRequest{FullName: "A", Pincode: "1234"}, service.ErrInvalidEmail},
		{"bad email", types.RegisterRequest{Email: "nope", FullName: "A", Pincode: "1234"}, service.ErrInvalidEmail},
		{"no name", types.RegisterRequest{Email: "a@x.io", Pincode: "1234"}, service.ErrInvalidFullName},
		{"short pin", types.RegisterRequest{Email: "a@x.io", FullName: "A", Pincode: "12"}, service.ErrInvalidPin},
		{"colon in pin", types.RegisterRequest{Email: "a@x.io", FullName: "A", Pincode: "12:34"}, service.ErrInvalidPin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestUsers_ListAndDelete(t *testing.T) {
	h := newHarness(t, true)
	svc := newUsers(h, fakeIssuer{})
	ctx := context.Background()

	resp, err := svc.Register(ctx, types.RegisterRequest{Email: "a@x.io", FullName: "A", Pincode: "1234"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 1 {
		t.Fatalf("expected 1 user, got %d", len(list))
	}
	if err := svc.Delete(ctx, resp.User.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, resp.User.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
