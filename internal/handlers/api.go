package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/orghub-io/orghub/internal/billing"
	"github.com/orghub-io/orghub/internal/email"
	"github.com/orghub-io/orghub/internal/fflags"
	"github.com/orghub-io/orghub/internal/models"
	"github.com/orghub-io/orghub/internal/orgs"
	"github.com/orghub-io/orghub/internal/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/orghub-io/orghub/internal/handlers")
}

type API struct {
	logger      *zap.SugaredLogger
	db          *gorm.DB
	orgs        *orgs.Service
	billing     *billing.Adapter
	fflags      *fflags.FFlags
	emailSender email.Sender
	// URL is the externally reachable base url, used in invitation
	// links.
	URL      string
	SmtpFrom string
}

func NewAPI(
	parent context.Context,
	logger *zap.SugaredLogger,
	db *gorm.DB,
	fflags *fflags.FFlags,
	emailSender email.Sender,
	customerCreator billing.CustomerCreator,
	url string,
	smtpFrom string,
) (*API, error) {
	_, span := tracer.Start(parent, "NewAPI")
	defer span.End()

	orgService, err := orgs.NewService(logger, db)
	if err != nil {
		return nil, err
	}
	billingAdapter, err := billing.NewAdapter(logger, db, customerCreator)
	if err != nil {
		return nil, err
	}

	return &API{
		logger:      logger,
		db:          db,
		orgs:        orgService,
		billing:     billingAdapter,
		fflags:      fflags,
		emailSender: emailSender,
		URL:         url,
		SmtpFrom:    smtpFrom,
	}, nil
}

func (api *API) Logger(ctx context.Context) *zap.SugaredLogger {
	return util.WithTrace(ctx, api.logger)
}

// GetCurrentUserID returns the authenticated user id placed in the gin
// context by the upstream auth middleware, or uuid.Nil.
func (api *API) GetCurrentUserID(c *gin.Context) uuid.UUID {
	value := c.GetString(gin.AuthUserKey)
	if value == "" {
		return uuid.Nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// GetCurrentUserEmail returns the authenticated user's email placed in
// the gin context by the upstream auth middleware.
func (api *API) GetCurrentUserEmail(c *gin.Context) string {
	return c.GetString(AuthUserEmailKey)
}

// AuthUserEmailKey is the gin context key holding the authenticated
// user's email address.
const AuthUserEmailKey = "orghub/user-email"

func (api *API) SendInternalServerError(c *gin.Context, err error) {
	SendInternalServerError(c, api.logger, err)
}

func SendInternalServerError(c *gin.Context, logger *zap.SugaredLogger, err error) {
	ctx := c.Request.Context()
	util.WithTrace(ctx, logger).Errorw("internal server error", "error", err)

	result := models.InternalServerError{
		BaseError: models.BaseError{
			Error: "internal server error",
		},
	}
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.HasTraceID() {
		result.TraceId = sc.TraceID().String()
	}
	c.JSON(http.StatusInternalServerError, result)
}
