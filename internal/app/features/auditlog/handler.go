// internal/app/features/auditlog/handler.go
package auditlog

import (
	uierrors "github.com/hakbangquest/hakbangweb/internal/app/features/errors"
	"github.com/hakbangquest/hakbangweb/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the administrator's view of the audit trail.
type Handler struct {
	Store  *audit.Store
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(store *audit.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		ErrLog: errLog,
		Log:    logger,
	}
}
