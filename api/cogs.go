package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/chefcloud/nimbus_backend/models/reports"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/gin-gonic/gin"
)

// parseReportRange reads fromDate/toDate query params (YYYY-MM-DD). When
// absent the range defaults to the current calendar month.
func parseReportRange(c *gin.Context) (time.Time, time.Time, error) {
	today, err := utils.ConvertToDate(time.Now(), "UTC")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	fromDate := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	toDate := fromDate.AddDate(0, 1, 0)

	if raw := c.Query("fromDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid fromDate %q: expected YYYY-MM-DD", raw)
		}
		fromDate = parsed
	}
	if raw := c.Query("toDate"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid toDate %q: expected YYYY-MM-DD", raw)
		}
		toDate = parsed
	}
	if !fromDate.Before(toDate) {
		return time.Time{}, time.Time{}, fmt.Errorf("fromDate must be before toDate")
	}
	return fromDate, toDate, nil
}

func GetCogsReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, toDate, err := parseReportRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := reports.GetCogsReport(c.Request.Context(), fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": report})
	}
}

func ExportCogsReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		fromDate, toDate, err := parseReportRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		report, err := reports.GetCogsReport(c.Request.Context(), fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}
		file, err := reports.BuildCogsExcel(report)
		if err != nil {
			respondError(c, err)
			return
		}

		fileName := fmt.Sprintf("cogs_%s_%s.xlsx", fromDate.Format("20060102"), toDate.Format("20060102"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			respondError(c, err)
			return
		}
	}
}
