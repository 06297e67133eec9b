package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/server/auth"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Register(ctx, RegisterInput{
		Email:    "  New.User@Example.com ",
		Password: strongPassword,
		FullName: " New User ",
		Phone:    "+37120000000",
	})
	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", u.Email)
	assert.Equal(t, "New User", u.FullName)
	assert.False(t, u.PhoneVerified)
	assert.NotEqual(t, strongPassword, u.PasswordHash)

	_, err = e.users.Register(ctx, RegisterInput{Email: "new.user@example.com", Password: strongPassword})
	requireKind(t, err, common.KindConflict)
}

func TestRegister_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.Register(ctx, RegisterInput{Email: "", Password: strongPassword})
	requireKind(t, err, common.KindInvalidArgument)

	_, err = e.users.Register(ctx, RegisterInput{Email: "a@x", Password: "password"})
	requireKind(t, err, common.KindInvalidArgument)
}

func TestMeAndUpdateProfile(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "a@x", "", false)
	ctx := context.Background()

	got, err := e.users.UpdateProfile(ctx, u.ID, "  Ann Smith ")
	require.NoError(t, err)
	assert.Equal(t, "Ann Smith", got.FullName)

	_, err = e.users.Me(ctx, "missing")
	ce := requireKind(t, err, common.KindNotFound)
	assert.Equal(t, "user not found", ce.Message)
}

func TestChangePassword(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "a@x", "", false)
	ctx := context.Background()

	pair, err := e.gateway.Login(ctx, "10.0.0.1", "a@x", strongPassword)
	require.NoError(t, err)

	err = e.users.ChangePassword(ctx, u.ID, "wrong", "Another-Long-Passphrase-77")
	ce := requireKind(t, err, common.KindInvalidArgument)
	assert.Equal(t, "incorrect password", ce.Message)

	err = e.users.ChangePassword(ctx, u.ID, strongPassword, "weak")
	requireKind(t, err, common.KindInvalidArgument)

	require.NoError(t, e.users.ChangePassword(ctx, u.ID, strongPassword, "Another-Long-Passphrase-77"))

	_, err = e.tokens.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = e.gateway.Login(ctx, "10.0.0.1", "a@x", "Another-Long-Passphrase-77")
	require.NoError(t, err)
}

func TestSetPhone_ResetsVerification(t *testing.T) {
	e := newEnv(t)
	u := e.addUser(t, "a@x", "+1000", true)
	ctx := context.Background()

	st, err := e.users.SetPhone(ctx, u.ID, " +2000 ")
	require.NoError(t, err)
	assert.Equal(t, &PhoneStatus{PhoneNumber: "+2000"}, st)

	got, err := e.users.GetPhone(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, &PhoneStatus{PhoneNumber: "+2000", PhoneVerified: false}, got)

	_, err = e.users.SetPhone(ctx, "missing", "+1")
	requireKind(t, err, common.KindNotFound)
}

func TestSetPhoneVerified(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.addUser(t, "admin@x", "", false)
	require.NoError(t, e.rm.Users().SetAdmin(ctx, admin.ID, true))
	plain := e.addUser(t, "plain@x", "", false)
	target := e.addUser(t, "t@x", "+371", false)
	nophone := e.addUser(t, "np@x", "", false)

	_, err := e.users.SetPhoneVerified(ctx, plain.ID, target.ID, true)
	requireKind(t, err, common.KindPermissionDenied)

	_, err = e.users.SetPhoneVerified(ctx, admin.ID, nophone.ID, true)
	requireKind(t, err, common.KindInvalidArgument)

	_, err = e.users.SetPhoneVerified(ctx, admin.ID, "missing", true)
	requireKind(t, err, common.KindNotFound)

	st, err := e.users.SetPhoneVerified(ctx, admin.ID, target.ID, true)
	require.NoError(t, err)
	assert.True(t, st.PhoneVerified)

	got, _ := e.users.GetPhone(ctx, target.ID)
	assert.True(t, got.PhoneVerified)

	st, err = e.users.SetPhoneVerified(ctx, admin.ID, target.ID, false)
	require.NoError(t, err)
	assert.False(t, st.PhoneVerified)

	_, err = e.users.SetPhoneVerified(ctx, admin.ID, nophone.ID, false)
	require.NoError(t, err, "revoking is allowed without a phone")
}

func TestRefreshToken_Rotates(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "a@x", "", false)
	ctx := context.Background()

	pair, err := e.gateway.Login(ctx, "10.0.0.1", "a@x", strongPassword)
	require.NoError(t, err)

	next, err := e.users.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = e.users.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "a rotated token is single use")
}

func TestRefreshToken_Expired(t *testing.T) {
	e := newEnv(t)
	e.addUser(t, "a@x", "", false)
	ctx := context.Background()

	pair, err := e.gateway.Login(ctx, "10.0.0.1", "a@x", strongPassword)
	require.NoError(t, err)
	e.clock.Advance(25 * time.Hour)

	_, err = e.users.RefreshToken(ctx, pair.RefreshToken)
	assert.Equal(t, common.ErrRefreshTokenExpired, err)

	_, err = e.rm.RefreshTokens().Find(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrorNotFound, "expired token is purged")
}

func TestSeedAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	a, err := e.users.SeedAdmin(ctx, "Admin@X", "changeme")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin)
	assert.Equal(t, "admin@x", a.Email)

	again, err := e.users.SeedAdmin(ctx, "admin@x", "different")
	require.NoError(t, err)
	assert.Equal(t, a.ID, again.ID)

	ok, err := e.hasher.Verify(again.PasswordHash, "changeme")
	require.NoError(t, err)
	assert.True(t, ok, "seeding again keeps the password")

	u := e.addUser(t, "promote@x", "", false)
	p, err := e.users.SeedAdmin(ctx, "promote@x", "whatever")
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.ID)
	assert.True(t, p.IsAdmin)

	_, err = e.users.SeedAdmin(ctx, "", "x")
	requireKind(t, err, common.KindInvalidArgument)
}

func TestRefresh_PostgresRotatesInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	keys, _ := auth.DeriveKeys([]byte("k"))
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rm := repomanager.NewPostgresRepositoryManager(db)
	ts := NewTokenService(rm, keys, TokenTTLs{Access: time.Hour, Refresh: time.Hour}, func() time.Time { return now })

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id, expires_at, created_at`)).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "created_at"}).
			AddRow("u1", now.Add(time.Minute), now.Add(-time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM refresh_tokens`)).
		WithArgs("old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens`)).
		WithArgs("u1", sqlmock.AnyArg(), now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pair, err := ts.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_PostgresStoreFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	keys, _ := auth.DeriveKeys([]byte("k"))
	ts := NewTokenService(repomanager.NewPostgresRepositoryManager(db), keys, TokenTTLs{}, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT user_id`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = ts.Refresh(context.Background(), "tok")
	require.Error(t, err)
	assert.Equal(t, common.KindInternal, common.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
