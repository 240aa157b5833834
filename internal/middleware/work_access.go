package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/agency-ops-api/internal/constants"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/models"
	"github.com/yukikurage/agency-ops-api/internal/repository"
	"gorm.io/gorm"
)

// RequireWork loads the work named by the :id parameter into the context
// so nested resource, expense and document routes act on an existing work.
func RequireWork(workRepo repository.WorkRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		work, err := workRepo.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Work not found")
			} else {
				apierrors.InternalError(c, "Failed to load work")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyWork, work)
		c.Next()
	}
}

// GetWork retrieves the work loaded by RequireWork
func GetWork(c *gin.Context) (*models.Work, bool) {
	v, exists := c.Get(constants.ContextKeyWork)
	if !exists {
		return nil, false
	}
	work, ok := v.(*models.Work)
	return work, ok
}
