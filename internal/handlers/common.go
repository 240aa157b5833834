package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/agency-ops-api/internal/errors"
	"github.com/yukikurage/agency-ops-api/internal/utils"
	"github.com/yukikurage/agency-ops-api/internal/validation"
)

// respondValidation writes a 400 with per-field details when err carries violations
func respondValidation(c *gin.Context, err error) bool {
	var v validation.Violations
	if errors.As(err, &v) {
		apierrors.BadRequestWithDetails(c, "Validation failed", v)
		return true
	}
	return false
}

// parseDates parses optional date strings, recording bad values under their field name
func parseDates(fields map[string]*string, out map[string]*time.Time, v validation.Violations) {
	for name, raw := range fields {
		if raw == nil {
			continue
		}
		t, err := utils.ParseDate(*raw)
		if err != nil {
			v.Add(name, "invalid_date")
			continue
		}
		out[name] = t
	}
}
