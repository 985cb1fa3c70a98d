package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bsm/redislock"
	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/models"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/chefcloud/nimbus_backend/workflow"
	"github.com/gin-gonic/gin"
)

func CreateOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		order, err := models.CreateOrder(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": order})
	}
}

func GetOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		order, err := models.GetOrder(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": order})
	}
}

// RecordDepletionHandler triggers COGS depletion for a completed order. A
// redis lock keeps concurrent triggers for the same order from duplicating
// work early; the unique index underneath stays the actual guarantee, so a
// missing redis connection is not an error.
func RecordDepletionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		ctx := c.Request.Context()

		if locker := config.GetRedisLock(); locker != nil {
			organizationId, _ := utils.GetOrganizationIdFromContext(ctx)
			lockKey := fmt.Sprintf("depletion:%s:%d", organizationId, id)
			if lock, lockErr := locker.Obtain(ctx, lockKey, 30*time.Second, nil); lockErr == nil {
				defer lock.Release(ctx)
			} else if lockErr == redislock.ErrNotObtained {
				c.JSON(http.StatusConflict, gin.H{"error": "depletion already in progress for this order"})
				return
			}
		}

		result, err := workflow.RecordOrderDepletion(ctx, id)
		if err != nil {
			respondError(c, err)
			return
		}
		status := http.StatusCreated
		if result.Created == 0 {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"success": true, "data": result})
	}
}
