package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/supavault/internal/identity/entity"
	"github.com/shandysiswandi/supavault/internal/pkg/clock"
	"github.com/shandysiswandi/supavault/internal/pkg/config"
	"github.com/shandysiswandi/supavault/internal/pkg/goerror"
	"github.com/shandysiswandi/supavault/internal/pkg/hash"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
	"github.com/shandysiswandi/supavault/internal/pkg/otp"
	"github.com/shandysiswandi/supavault/internal/pkg/uid"
	"github.com/shandysiswandi/supavault/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// UserRegisteredEvent is published once per user, when the first successful
// verification for an email creates the account.
type UserRegisteredEvent struct {
	UserID   int64
	Username string
	Email    string
}

// OTPMail is what the delivery gateway needs to send a code.
type OTPMail struct {
	To        string
	Username  string
	Code      string
	ExpiresIn time.Duration
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
}

type repoEmail interface {
	SendOTP(ctx context.Context, msg OTPMail) error
}

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	// CreateUser returns goerror.ErrConflict when the email is taken.
	CreateUser(ctx context.Context, user entity.User) error
	// CreateUserIfAbsent reports whether a row was inserted.
	CreateUserIfAbsent(ctx context.Context, user entity.User) (bool, error)
	SearchUsers(ctx context.Context, term string, excludeID int64, limit int) ([]entity.User, error)
}

// repoChallenge is the challenge half of the credential store. Postgres and
// Redis both implement it.
type repoChallenge interface {
	// UpsertChallenge replaces any challenge for the same (username, email),
	// id included.
	UpsertChallenge(ctx context.Context, chal entity.Challenge) error
	// ReserveAttempt counts one attempt against the challenge before its code
	// is compared and returns the challenge with the new count. It returns
	// goerror.ErrNotFound when the challenge is gone or limit attempts were
	// already counted.
	ReserveAttempt(ctx context.Context, id string, limit int) (*entity.Challenge, error)
	// ConsumeChallenge deletes the challenge and reports whether this call
	// removed it.
	ConsumeChallenge(ctx context.Context, id string) (bool, error)
	DeleteChallenge(ctx context.Context, id string) error
}

type Usecase struct {
	repoDB        repoDB
	repoChallenge repoChallenge
	repoMessaging repoMessaging
	repoEmail     repoEmail
	validator     validator.Validator
	cfg           config.Config
	hasher        hash.Hash
	otp           otp.Generator
	uid           uid.NumberID
	ulid          uid.StringID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoChallenge repoChallenge
	RepoMessaging repoMessaging
	RepoEmail     repoEmail
	Validator     validator.Validator
	Config        config.Config
	Hasher        hash.Hash
	OTP           otp.Generator
	UID           uid.NumberID
	ULID          uid.StringID
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoChallenge: dep.RepoChallenge,
		repoMessaging: dep.RepoMessaging,
		repoEmail:     dep.RepoEmail,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hasher:        dep.Hasher,
		otp:           dep.OTP,
		uid:           dep.UID,
		ulid:          dep.ULID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) maxAttempts() int {
	if v := s.cfg.GetInt("modules.identity.otp.max_attempts"); v > 0 {
		return v
	}
	return entity.DefaultMaxAttempts
}

func (s *Usecase) expiry() time.Duration {
	if v := s.cfg.GetMinute("modules.identity.otp.expiry_minutes"); v > 0 {
		return v
	}
	return entity.DefaultExpiry
}

func (s *Usecase) searchLimit() int {
	if v := s.cfg.GetInt("modules.identity.search_limit"); v > 0 {
		return v
	}
	return 20
}

func errVerificationFailed() error {
	return goerror.NewBusiness("Verification failed", goerror.CodeBadRequest)
}

func errUserNotFound() error {
	return goerror.NewBusiness("User not found", goerror.CodeNotFound)
}

func errUnauthorized() error {
	return goerror.NewBusiness("Unauthorized", goerror.CodeUnauthorized)
}
