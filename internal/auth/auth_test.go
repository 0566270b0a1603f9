package auth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"
)

func TestSetAndGetConnectionString(t *testing.T) {
	gokeyring.MockInit()

	connStr := "postgres://testuser@localhost:5432/testdb?sslmode=disable"
	if err := SetConnectionString(connStr); err != nil {
		t.Fatalf("SetConnectionString() failed: %v", err)
	}

	got, err := GetConnectionString()
	if err != nil {
		t.Fatalf("GetConnectionString() failed: %v", err)
	}
	if got != connStr {
		t.Errorf("GetConnectionString() = %q, want %q", got, connStr)
	}

	if err := DeleteConnectionString(); err != nil {
		t.Fatalf("DeleteConnectionString() failed: %v", err)
	}
	if _, err := GetConnectionString(); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetConnectionString() after delete error = %v, want ErrNotFound", err)
	}
}

func TestSetEmptyValues(t *testing.T) {
	gokeyring.MockInit()

	if err := SetConnectionString(""); err == nil {
		t.Error("SetConnectionString(\"\") should return an error")
	}
	if err := SetCurrentUser(""); err == nil {
		t.Error("SetCurrentUser(\"\") should return an error")
	}
}

func TestKeyringSource(t *testing.T) {
	gokeyring.MockInit()
	ctx := context.Background()

	src := NewKeyringSource()
	src.lookupEnv = func(string) (string, bool) { return "", false }

	if _, err := src.CurrentUser(ctx); !errors.Is(err, ErrNoUser) {
		t.Fatalf("CurrentUser() before login error = %v, want ErrNoUser", err)
	}

	if err := SetCurrentUser("alex"); err != nil {
		t.Fatalf("SetCurrentUser() failed: %v", err)
	}
	if got, err := src.CurrentUser(ctx); err != nil || got != "alex" {
		t.Errorf("CurrentUser() = %q, %v; want alex", got, err)
	}

	src.lookupEnv = func(string) (string, bool) { return "sam", true }
	if got, _ := src.CurrentUser(ctx); got != "sam" {
		t.Errorf("CurrentUser() with env override = %q, want sam", got)
	}

	if err := Logout(); err != nil {
		t.Fatalf("Logout() failed: %v", err)
	}
	if err := Logout(); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Logout() error = %v, want ErrNotFound", err)
	}
}

func TestStatic(t *testing.T) {
	if got, err := Static("alex").CurrentUser(context.Background()); err != nil || got != "alex" {
		t.Errorf("CurrentUser() = %q, %v", got, err)
	}
	if _, err := Static("").CurrentUser(context.Background()); !errors.Is(err, ErrNoUser) {
		t.Errorf("empty Static error = %v, want ErrNoUser", err)
	}
}

type eventually struct {
	calls atomic.Int32
	after int32
}

func (e *eventually) CurrentUser(context.Context) (string, error) {
	if e.calls.Add(1) < e.after {
		return "", ErrNoUser
	}
	return "alex", nil
}

func TestWait(t *testing.T) {
	t.Run("returns once a user appears", func(t *testing.T) {
		src := &eventually{after: 3}
		got, err := Wait(context.Background(), src, time.Millisecond)
		if err != nil || got != "alex" {
			t.Fatalf("Wait() = %q, %v", got, err)
		}
		if n := src.calls.Load(); n != 3 {
			t.Errorf("polled %d times, want 3", n)
		}
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		if _, err := Wait(ctx, Static(""), time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
		}
	})

	t.Run("surfaces other errors", func(t *testing.T) {
		boom := errors.New("boom")
		src := sourceFunc(func(context.Context) (string, error) { return "", boom })
		if _, err := Wait(context.Background(), src, time.Millisecond); !errors.Is(err, boom) {
			t.Errorf("Wait() error = %v, want boom", err)
		}
	})
}

type sourceFunc func(context.Context) (string, error)

func (f sourceFunc) CurrentUser(ctx context.Context) (string, error) { return f(ctx) }
