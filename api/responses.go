package api

import (
	"errors"
	"net/http"

	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// respondError maps domain errors to HTTP. Guard denials surface as a 409
// carrying the machine-readable code and the denying period's identity.
func respondError(c *gin.Context, err error) {
	var pce *models.PeriodClosedError
	if errors.As(err, &pce) {
		c.JSON(http.StatusConflict, gin.H{
			"code":        pce.Code,
			"periodId":    pce.PeriodId,
			"periodStart": pce.PeriodStart,
			"periodEnd":   pce.PeriodEnd,
			"message":     pce.Error(),
		})
		return
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make([]gin.H, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, gin.H{"field": fe.Field(), "rule": fe.Tag()})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
		return
	}

	if errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
