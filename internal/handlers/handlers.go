package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/01moynul/taptosell-settlement/internal/analytics"
	"github.com/01moynul/taptosell-settlement/internal/apperrors"
	"github.com/01moynul/taptosell-settlement/internal/fees"
	"github.com/01moynul/taptosell-settlement/internal/invoicing"
	"github.com/01moynul/taptosell-settlement/internal/middleware"
	"github.com/01moynul/taptosell-settlement/internal/orders"
	"github.com/01moynul/taptosell-settlement/internal/repository"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Orders    *orders.Service
	Engine    *invoicing.Engine
	Invoices  *invoicing.Manager
	Fees      *fees.Resolver
	Analytics *analytics.Service
	Repos     *repository.Repositories
	Location  *time.Location // used for dates in exported files
	Logger    *zap.Logger
	Now       func() time.Time
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handlers) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// respondError writes err with the status its type maps to.
// Unexpected errors are logged and hidden from the client.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger().Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	var transition *apperrors.ErrInvalidStateTransition
	if errors.As(err, &transition) {
		c.JSON(status, gin.H{"error": err.Error(), "validTransitions": transition.Valid})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// pathID parses a uuid path parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// actor is the authenticated caller as the order service sees it.
func actor(c *gin.Context) (orders.Actor, bool) {
	id, role, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return orders.Actor{}, false
	}
	return orders.Actor{UserID: id, Role: orders.Role(role)}, true
}

// bindError answers 400 for a request body that failed binding.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
}
