package routers

import (
	"context"
	"net/http"
	"strings"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/orghub-io/orghub/internal/handlers"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const name = "github.com/orghub-io/orghub/internal/routers"

type APIRouterOptions struct {
	Logger *zap.SugaredLogger
	Api    *handlers.API
	// AuthMiddleware authenticates the request and places the user id
	// under gin.AuthUserKey and the email under
	// handlers.AuthUserEmailKey. The api gateway in front of the
	// apiserver owns credential verification.
	AuthMiddleware gin.HandlerFunc
}

func NewAPIRouter(ctx context.Context, o APIRouterOptions) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	loggerMiddleware := ginzap.GinzapWithConfig(o.Logger.Desugar(), &ginzap.Config{
		TimeFormat: time.RFC3339,
		UTC:        true,
		Context: func(c *gin.Context) []zapcore.Field {
			return []zapcore.Field{
				zap.String("traceID", trace.SpanFromContext(c.Request.Context()).SpanContext().TraceID().String()),
			}
		},
	})

	r.Use(otelgin.Middleware(name, otelgin.WithPropagators(
		propagation.TraceContext{},
	)))
	r.Use(ginzap.RecoveryWithZap(o.Logger.Desugar(), true))

	newPrometheus().Use(r)

	private := r.Group("/api", loggerMiddleware)
	{
		api := o.Api
		if o.AuthMiddleware != nil {
			private.Use(o.AuthMiddleware)
		}

		// Feature Flags
		private.GET("/fflags", api.ListFeatureFlags)
		private.GET("/fflags/:name", api.GetFeatureFlag)

		// Organizations
		private.POST("/organizations", api.CreateOrganization)
		private.GET("/organizations/:organization", api.GetOrganization)
		private.PATCH("/organizations/:organization", api.UpdateOrganization)

		// Roles
		private.GET("/organizations/:organization/roles", api.ListRoles)
		private.POST("/organizations/:organization/roles", api.CreateRole)
		private.PATCH("/organizations/:organization/roles/:role", api.UpdateRole)
		private.DELETE("/organizations/:organization/roles/:role", api.DeleteRole)
		private.GET("/organizations/:organization/roles/:role/permissions", api.ListRolePermissions)
		private.PUT("/organizations/:organization/roles/:role/permissions", api.UpdateRolePermissions)

		// Members
		private.GET("/organizations/:organization/access", api.GetMyAccess)
		private.GET("/organizations/:organization/members", api.ListMembers)
		private.PATCH("/organizations/:organization/members/:member", api.UpdateMember)
		private.DELETE("/organizations/:organization/members/:member", api.RemoveMember)

		// Invitations
		private.GET("/organizations/:organization/invitations", api.ListInvitations)
		private.GET("/organizations/:organization/invitations/eligibility", api.CheckIfCanInvite)
		private.POST("/organizations/:organization/invitations", api.CreateInvitation)
		private.PATCH("/organizations/:organization/invitations/:invitation", api.UpdateInvitation)
		private.DELETE("/organizations/:organization/invitations/:invitation", api.RevokeInvitation)
		private.POST("/organizations/:organization/invitations/:invitation/decline", api.DeclineInvitation)
		private.GET("/invitations/receive", api.GetInvitationFromToken)
		private.POST("/invitations/:invitation/accept", api.AcceptInvitation)

		// Billing
		private.POST("/organizations/:organization/billing/customer", api.EnsureBillingCustomer)
		private.GET("/organizations/:organization/billing/seats", api.GetSeatUsage)
	}

	// Don't log the health/readiness checks.
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "UP",
		})
	})
	r.GET("/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "UP",
		})
	})

	return r, nil
}

func newPrometheus() *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus("apiserver")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := c.Request.URL.Path
		for _, p := range c.Params {
			url = strings.Replace(url, p.Value, ":"+p.Key, 1)
		}
		return url
	}
	return p
}
