package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/gin-gonic/gin"
)

func auditFilterFromQuery(c *gin.Context) (models.AuditEventFilter, error) {
	var filter models.AuditEventFilter

	if raw := c.Query("actorId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.ActorId = &id
	}
	if raw := c.Query("entityType"); raw != "" {
		entityType := models.AuditEntityType(raw)
		filter.EntityType = &entityType
	}
	if raw := c.Query("entityId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return filter, err
		}
		filter.EntityId = &id
	}
	filter.PeriodId = utils.NilIfEmpty(c.Query("periodId"))
	if raw := c.Query("fromDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &parsed
	}
	if raw := c.Query("toDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &parsed
	}
	return filter, nil
}

func GetAuditEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := auditFilterFromQuery(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
		}

		events, err := models.GetImmutabilityAuditEvents(c.Request.Context(), filter, limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": events})
	}
}

func GetAuditStatsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var fromDate, toDate *time.Time
		if raw := c.Query("fromDate"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fromDate"})
				return
			}
			fromDate = &parsed
		}
		if raw := c.Query("toDate"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid toDate"})
				return
			}
			toDate = &parsed
		}

		stats, err := models.GetImmutabilityAuditStats(c.Request.Context(), fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": stats})
	}
}
