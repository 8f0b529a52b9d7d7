package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"playtube/cmd/account"
	"playtube/cmd/security/password"
	"playtube/cmd/security/token"
)

func testHasher() password.Hasher {
	// Small params keep the suite fast; semantics are unchanged.
	return password.NewHasher(password.Params{
		MemoryKiB:      8 * 1024,
		Iterations:     1,
		Parallelism:    1,
		SaltLength:     16,
		KeyLength:      32,
		MaxPasswordLen: 256,
	})
}

func testCodec(t *testing.T) *token.Codec {
	t.Helper()
	cfg := token.DefaultConfig()
	cfg.AccessSecret = []byte(strings.Repeat("a", 32))
	cfg.RefreshSecret = []byte(strings.Repeat("r", 32))
	c, err := token.NewCodec(cfg)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func newTestService(t *testing.T) (*Service, *account.MemoryStore) {
	t.Helper()
	store := account.NewMemoryStore()
	svc, err := NewService(DefaultConfig(), store, testHasher(), testCodec(t))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func mustRegister(t *testing.T, svc *Service) account.Account {
	t.Helper()
	acc, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@x.com",
		FullName: "Alice A",
		Password: "pw123",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return acc
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc := mustRegister(t, svc)
	if acc.PasswordHash != "" || acc.RefreshToken != "" {
		t.Fatalf("registered account must be sanitized: %+v", acc)
	}

	res, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Account.ID != acc.ID {
		t.Fatalf("login resolved wrong account")
	}
	if res.Account.PasswordHash != "" || res.Account.RefreshToken != "" {
		t.Fatalf("login account must be sanitized: %+v", res.Account)
	}
	if res.Issued.AccessToken == res.Issued.RefreshToken {
		t.Fatalf("access and refresh tokens must be distinct")
	}

	codec := svc.codec
	if _, err := codec.Verify(res.Issued.AccessToken, token.KindAccess); err != nil {
		t.Fatalf("access token must verify: %v", err)
	}
	if _, err := codec.Verify(res.Issued.RefreshToken, token.KindRefresh); err != nil {
		t.Fatalf("refresh token must verify: %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, svc)

	_, err := svc.Register(ctx, RegisterInput{
		Username: "ALICE", Email: "other@x.com", FullName: "A", Password: "pw",
	})
	if !account.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: " ", Email: "a@x.com", FullName: "A", Password: "pw",
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestLoginFailureIsUniform(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, svc)

	_, wrongPw := svc.Login(ctx, "alice", "", "not-the-password")
	_, unknown := svc.Login(ctx, "mallory", "", "pw123")

	if !errors.Is(wrongPw, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongPw)
	}
	if !errors.Is(unknown, ErrInvalidCredentials) {
		t.Fatalf("unknown identifier: expected ErrInvalidCredentials, got %v", unknown)
	}
	if wrongPw.Error() != unknown.Error() {
		t.Fatalf("failure modes must be indistinguishable: %q vs %q", wrongPw, unknown)
	}
}

func TestLoginByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, svc)

	if _, err := svc.Login(ctx, "", "Alice@X.com", "pw123"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestRefreshRotationAndReuseDetection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, svc)
	res, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	first := res.Issued.RefreshToken

	rotated, err := svc.Refresh(ctx, first)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == first {
		t.Fatalf("rotation must mint a new refresh token")
	}

	// The rotated-out token still verifies cryptographically but must fail
	// the stored-value comparison.
	if _, err := svc.Refresh(ctx, first); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused, got %v", err)
	}

	// The new token succeeds exactly once until the next rotation.
	again, err := svc.Refresh(ctx, rotated.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh (new token): %v", err)
	}
	if _, err := svc.Refresh(ctx, rotated.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused for second use, got %v", err)
	}
	if _, err := svc.Refresh(ctx, again.RefreshToken); err != nil {
		t.Fatalf("Refresh (latest token): %v", err)
	}
}

func TestRefreshRejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Refresh(ctx, ""); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("empty token: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.Refresh(ctx, "garbage"); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("garbage token: expected ErrTokenInvalid, got %v", err)
	}

	// An access token must never be accepted on the refresh path.
	mustRegister(t, svc)
	res, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := svc.Refresh(ctx, res.Issued.AccessToken); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("access-as-refresh: expected ErrTokenInvalid, got %v", err)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc := mustRegister(t, svc)
	res, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, acc.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// Idempotent.
	if err := svc.Logout(ctx, acc.ID); err != nil {
		t.Fatalf("Logout (again): %v", err)
	}

	if _, err := svc.Refresh(ctx, res.Issued.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("refresh after logout: expected ErrTokenReused, got %v", err)
	}
}

func TestLoginReplacesPriorSession(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, svc)
	first, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	second, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login (second): %v", err)
	}

	// The second login overwrote the stored token; the first session is dead.
	if _, err := svc.Refresh(ctx, first.Issued.RefreshToken); !errors.Is(err, ErrTokenReused) {
		t.Fatalf("expected ErrTokenReused for replaced session, got %v", err)
	}
	if _, err := svc.Refresh(ctx, second.Issued.RefreshToken); err != nil {
		t.Fatalf("current session must refresh: %v", err)
	}
}

func TestConcurrentRefreshExactlyOneWins(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	mustRegister(t, svc)
	res, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Refresh(ctx, res.Issued.RefreshToken)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrTokenReused):
		default:
			t.Fatalf("unexpected refresh error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning rotation, got %d", wins)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc := mustRegister(t, svc)

	if err := svc.ChangePassword(ctx, acc.ID, "wrong", "newpw456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong old password: expected ErrInvalidCredentials, got %v", err)
	}

	if err := svc.ChangePassword(ctx, acc.ID, "pw123", "newpw456"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	// Old password no longer works; new one does.
	if _, err := svc.Login(ctx, "alice", "", "pw123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must be rejected, got %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "", "newpw456"); err != nil {
		t.Fatalf("new password must work: %v", err)
	}

	// A live session stays alive across a password change: the stored
	// refresh token is not revoked.
	post, err := svc.Login(ctx, "alice", "", "newpw456")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.ChangePassword(ctx, acc.ID, "newpw456", "anotherpw789"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Refresh(ctx, post.Issued.RefreshToken); err != nil {
		t.Fatalf("session must survive password change: %v", err)
	}
}

func TestValidateAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc := mustRegister(t, svc)
	res, err := svc.Login(ctx, "alice", "", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	id, err := svc.ValidateAccess(res.Issued.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if id != acc.ID {
		t.Fatalf("subject = %q, want %q", id, acc.ID)
	}

	if _, err := svc.ValidateAccess(res.Issued.RefreshToken); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("refresh-as-access: expected ErrTokenInvalid, got %v", err)
	}
	if _, err := svc.ValidateAccess(""); !errors.Is(err, token.ErrTokenInvalid) {
		t.Fatalf("empty token: expected ErrTokenInvalid, got %v", err)
	}

	// Access tokens outlive logout.
	if err := svc.Logout(ctx, acc.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.ValidateAccess(res.Issued.AccessToken); err != nil {
		t.Fatalf("access token must survive logout: %v", err)
	}
}

func TestAccountLookup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc := mustRegister(t, svc)

	got, err := svc.Account(ctx, acc.ID)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if got.PasswordHash != "" || got.RefreshToken != "" {
		t.Fatalf("account must be sanitized: %+v", got)
	}

	if _, err := svc.Account(ctx, "missing"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
