package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/dmitrijs2005/housing/internal/common"
	"github.com/dmitrijs2005/housing/internal/logging"
	"github.com/dmitrijs2005/housing/internal/server/models"
	"github.com/dmitrijs2005/housing/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/housing/internal/timex"
)

const (
	// ResetCodeValidity is how long an issued code stays usable.
	ResetCodeValidity = 10 * time.Minute
	resetCodeDigits   = 6
)

var resetCodeSpace = big.NewInt(1_000_000)

// VerifyOutcome says why a verification ended the way it did. Callers must
// not reveal anything but success or failure to the client.
type VerifyOutcome int

const (
	VerifyOK VerifyOutcome = iota
	VerifyNoChallenge
	VerifyExpired
	VerifyMalformed
	VerifyMismatch
)

func (o VerifyOutcome) String() string {
	switch o {
	case VerifyOK:
		return "ok"
	case VerifyNoChallenge:
		return "no_challenge"
	case VerifyExpired:
		return "expired"
	case VerifyMalformed:
		return "malformed"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// ResetCodeService issues and checks the 6-digit password reset codes. Only
// a keyed hash of a code is ever stored.
type ResetCodeService struct {
	repomanager repomanager.RepositoryManager
	key         []byte
	now         timex.Clock
	random      io.Reader
	log         logging.Logger
}

func NewResetCodeService(m repomanager.RepositoryManager, key []byte, now timex.Clock, log logging.Logger) *ResetCodeService {
	if now == nil {
		now = timex.SystemClock
	}
	return &ResetCodeService{
		repomanager: m,
		key:         key,
		now:         now,
		random:      rand.Reader,
		log:         log.With("module", "resetcode"),
	}
}

// Issue stores a fresh challenge for userID, replacing any earlier one, and
// returns the plaintext code for delivery.
func (s *ResetCodeService) Issue(ctx context.Context, userID string) (string, error) {
	n, err := rand.Int(s.random, resetCodeSpace)
	if err != nil {
		return "", common.Internal(fmt.Errorf("generating reset code: %w", err))
	}
	code := fmt.Sprintf("%0*d", resetCodeDigits, n.Int64())

	challenge := &models.ResetChallenge{
		CodeHash:  s.hash(userID, code),
		ExpiresAt: s.now().Add(ResetCodeValidity),
	}
	if err := s.repomanager.Users().SetResetChallenge(ctx, userID, challenge); err != nil {
		return "", fmt.Errorf("error storing reset challenge: %w", err)
	}
	return code, nil
}

// Verify checks code against userID's outstanding challenge. A correct code
// consumes the challenge; an expired one is discarded; a wrong one leaves it
// in place. The returned error is reserved for store failures.
func (s *ResetCodeService) Verify(ctx context.Context, userID, code string) (VerifyOutcome, error) {
	outcome := VerifyNoChallenge

	err := s.repomanager.InTx(ctx, func(ctx context.Context, st repomanager.Store) error {
		user, err := st.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		outcome = s.check(user, code)

		switch outcome {
		case VerifyOK, VerifyExpired:
			return st.Users().SetResetChallenge(ctx, userID, nil)
		default:
			return nil
		}
	})
	if err != nil {
		return VerifyNoChallenge, err
	}

	if outcome != VerifyOK {
		s.log.Info(ctx, "reset code rejected", "user_id", userID, "reason", outcome.String())
	}
	return outcome, nil
}

func (s *ResetCodeService) check(user *models.User, code string) VerifyOutcome {
	if user.Reset == nil || user.Reset.CodeHash == "" {
		return VerifyNoChallenge
	}
	if s.now().After(user.Reset.ExpiresAt) {
		return VerifyExpired
	}
	if !isResetCode(code) {
		return VerifyMalformed
	}
	want, err := hex.DecodeString(user.Reset.CodeHash)
	if err != nil {
		return VerifyMismatch
	}
	if !hmac.Equal(s.mac(user.ID, code), want) {
		return VerifyMismatch
	}
	return VerifyOK
}

func (s *ResetCodeService) mac(userID, code string) []byte {
	m := hmac.New(sha256.New, s.key)
	m.Write([]byte(userID))
	m.Write([]byte{':'})
	m.Write([]byte(code))
	return m.Sum(nil)
}

func (s *ResetCodeService) hash(userID, code string) string {
	return hex.EncodeToString(s.mac(userID, code))
}

func isResetCode(code string) bool {
	if len(code) != resetCodeDigits {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
