package api

import (
	"net/http"
	"strconv"

	"github.com/chefcloud/nimbus_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateFiscalPeriodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewFiscalPeriod
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		period, err := models.CreateFiscalPeriod(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": period})
	}
}

func GetFiscalPeriodsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		periods, err := models.GetFiscalPeriods(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": periods})
	}
}

func GetFiscalPeriodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period id"})
			return
		}
		period, err := models.GetFiscalPeriod(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": period})
	}
}

func CloseFiscalPeriodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period id"})
			return
		}
		period, err := models.CloseFiscalPeriod(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": period})
	}
}

func ReopenFiscalPeriodHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period id"})
			return
		}
		period, err := models.ReopenFiscalPeriod(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": period})
	}
}
