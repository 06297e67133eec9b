package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/notify"
	"github.com/dmitrijs2005/housing/internal/server/ratelimit"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Correct-Horse-Battery-Staple-42"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type message struct {
	dest, subject, body string
}

type captureNotifier struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (c *captureNotifier) Notify(_ context.Context, dest, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, message{dest, subject, body})
	return c.err
}

func (c *captureNotifier) all() []message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]message(nil), c.msgs...)
}

type delayRecorder struct {
	mu    sync.Mutex
	calls [][2]time.Duration
}

func (d *delayRecorder) Delay(min, max time.Duration) {
	d.mu.Lock()
	d.calls = append(d.calls, [2]time.Duration{min, max})
	d.mu.Unlock()
}

func (d *delayRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type env struct {
	clock   *testClock
	rm      *repomanager.MemoryRepositoryManager
	limiter *ratelimit.Limiter
	hasher  *auth.PasswordHasher
	keys    auth.Keys

	mail    *captureNotifier
	inbox   *captureNotifier
	mailBE  *notify.BestEffort
	inboxBE *notify.BestEffort
	delays  *delayRecorder

	tokens   *TokenService
	codes    *ResetCodeService
	users    *UserService
	gateway  *AuthGateway
	contacts *ContactService
	listings *ListingService
	apps     *ApplicationService
	notes    *NotificationService
}

func newEnv(t *testing.T, opts ...AuthGatewayOption) *env {
	t.Helper()

	keys, err := auth.DeriveKeys([]byte("test-secret"))
	require.NoError(t, err)

	e := &env{
		clock:  newTestClock(),
		hasher: auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}),
		keys:   keys,
		mail:   &captureNotifier{},
		inbox:  &captureNotifier{},
		delays: &delayRecorder{},
	}
	log := logging.NewNop()

	e.rm = repomanager.NewMemoryRepositoryManager(e.clock.Now)
	e.limiter = ratelimit.New(ratelimit.WithClock(e.clock.Now))
	e.mailBE = notify.NewBestEffort(e.mail, log)
	e.inboxBE = notify.NewBestEffort(e.inbox, log)

	e.tokens = NewTokenService(e.rm, keys, TokenTTLs{Access: time.Hour, Refresh: 24 * time.Hour, Reset: 15 * time.Minute}, e.clock.Now)
	e.codes = NewResetCodeService(e.rm, keys.ResetCode, e.clock.Now, log)
	e.users = NewUserService(e.rm, e.hasher, e.tokens, log)

	opts = append([]AuthGatewayOption{WithDelayer(e.delays.Delay)}, opts...)
	e.gateway = NewAuthGateway(e.rm, e.limiter, e.hasher, e.codes, e.tokens, e.mailBE, log, opts...)

	e.contacts = NewContactService(e.rm, e.inboxBE, log)
	e.listings = NewListingService(e.rm, log)
	e.apps = NewApplicationService(e.rm, e.inboxBE, log)
	e.notes = NewNotificationService(e.rm)
	return e
}

// addUser stores a user with strongPassword directly, bypassing Register.
func (e *env) addUser(t *testing.T, email, phone string, verified bool) *models.User {
	t.Helper()
	hash, err := e.hasher.Hash(strongPassword)
	require.NoError(t, err)
	u, err := e.rm.Users().Create(context.Background(), &models.User{
		ID:            uuid.NewString(),
		Email:         email,
		PasswordHash:  hash,
		PhoneNumber:   phone,
		PhoneVerified: verified,
	})
	require.NoError(t, err)
	return u
}

func (e *env) addListing(t *testing.T, ownerID, title string) *models.Listing {
	t.Helper()
	l, err := e.listings.Create(context.Background(), ownerID, ListingInput{Title: title, Location: "Riga", Rooms: 2, Rent: 500})
	require.NoError(t, err)
	return l
}

// lastCode waits for pending mail and pulls the code out of the newest
// reset e-mail.
func (e *env) lastCode(t *testing.T) string {
	t.Helper()
	e.mailBE.Wait()
	msgs := e.mail.all()
	require.NotEmpty(t, msgs, "no mail sent")
	body := msgs[len(msgs)-1].body
	for _, line := range strings.Split(body, "\n") {
		if isResetCode(strings.TrimSpace(line)) {
			return strings.TrimSpace(line)
		}
	}
	t.Fatalf("no code in mail body %q", body)
	return ""
}
