package orgs

import (
	"context"
	"time"

	"github.com/orghub-io/orghub/internal/database"
	"github.com/orghub-io/orghub/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/orghub-io/orghub/internal/orgs")
}

// DefaultInvitationTTL is how long a fresh invitation stays pending.
const DefaultInvitationTTL = 7 * 24 * time.Hour

// Service holds the organization engines: role hierarchy, role
// permissions, membership/access, invitations and organization
// lifecycle. It is stateless between calls; every multi-step mutation
// runs inside a single transaction.
type Service struct {
	logger        *zap.SugaredLogger
	db            *gorm.DB
	transaction   database.TransactionFunc
	dialect       database.Dialect
	invitationTTL time.Duration
}

type Option func(*Service)

// WithInvitationTTL overrides how long invitations stay pending.
func WithInvitationTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.invitationTTL = ttl
	}
}

func NewService(logger *zap.SugaredLogger, db *gorm.DB, opts ...Option) (*Service, error) {
	transactionFunc, dialect, err := database.GetTransactionFunc(db)
	if err != nil {
		return nil, err
	}
	s := &Service{
		logger:        logger,
		db:            db,
		transaction:   transactionFunc,
		dialect:       dialect,
		invitationTTL: DefaultInvitationTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) Logger(ctx context.Context) *zap.SugaredLogger {
	return util.WithTrace(ctx, s.logger)
}

// forUpdate adds a row lock where the dialect supports one. sqlite
// serializes writers on its own.
func (s *Service) forUpdate(tx *gorm.DB) *gorm.DB {
	if s.dialect == database.DialectSqlLite {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
