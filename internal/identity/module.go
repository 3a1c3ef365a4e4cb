package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/supavault/internal/identity/inbound"
	"github.com/shandysiswandi/supavault/internal/identity/outbound/cache"
	"github.com/shandysiswandi/supavault/internal/identity/outbound/db"
	"github.com/shandysiswandi/supavault/internal/identity/outbound/email"
	"github.com/shandysiswandi/supavault/internal/identity/outbound/mq"
	"github.com/shandysiswandi/supavault/internal/identity/usecase"
	"github.com/shandysiswandi/supavault/internal/pkg/clock"
	"github.com/shandysiswandi/supavault/internal/pkg/config"
	"github.com/shandysiswandi/supavault/internal/pkg/hash"
	"github.com/shandysiswandi/supavault/internal/pkg/instrument"
	"github.com/shandysiswandi/supavault/internal/pkg/jwt"
	"github.com/shandysiswandi/supavault/internal/pkg/mail"
	"github.com/shandysiswandi/supavault/internal/pkg/messaging"
	"github.com/shandysiswandi/supavault/internal/pkg/otp"
	"github.com/shandysiswandi/supavault/internal/pkg/router"
	"github.com/shandysiswandi/supavault/internal/pkg/uid"
	"github.com/shandysiswandi/supavault/internal/pkg/validator"
)

const (
	challengeStorePostgres = "postgres"
	challengeStoreRedis    = "redis"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	ULID       uid.StringID               `validate:"required"`
	Hasher     hash.Hash                  `validate:"required"`
	OTP        otp.Generator              `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbIdentity := db.NewDB(dep.DBConn, dep.Instrument)

	ucDep := usecase.Dependency{
		RepoDB:        dbIdentity,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		RepoEmail:     email.New(dep.Mail, dep.Instrument, dep.Config.GetString("app.name")),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Hasher:        dep.Hasher,
		OTP:           dep.OTP,
		UID:           dep.UID,
		ULID:          dep.ULID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
	}

	switch store := strings.ToLower(dep.Config.GetString("modules.identity.challenge_store")); store {
	case "", challengeStorePostgres:
		ucDep.RepoChallenge = dbIdentity
	case challengeStoreRedis:
		// keys outlive the expiry window so an expired code still reports as expired
		var ttl time.Duration
		if expiry := dep.Config.GetMinute("modules.identity.otp.expiry_minutes"); expiry > 0 {
			ttl = expiry + time.Minute
		}
		ucDep.RepoChallenge = cache.NewCache(dep.CacheConn, dep.Instrument, ttl)
	default:
		return fmt.Errorf("identity: unknown challenge store %q", store)
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc, inbound.Options{
		Cookie: inbound.CookieConfig{
			Name:   dep.Config.GetString("modules.identity.session.cookie_name"),
			Secure: dep.Config.GetBool("app.cookie.secure"),
			Domain: dep.Config.GetString("app.cookie.domain"),
		},
		SeedEnabled: dep.Config.GetBool("modules.identity.seed_enabled"),
	})

	return nil
}
