package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chefcloud/nimbus_backend/config"
	"github.com/chefcloud/nimbus_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type CogsLine struct {
	ItemId      int             `json:"itemId"`
	ItemName    string          `json:"itemName"`
	QtyDepleted decimal.Decimal `json:"qtyDepleted"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	LineCogs    decimal.Decimal `json:"lineCogs"`
}

type CogsSummaryRow struct {
	ItemId      int             `json:"itemId"`
	ItemName    string          `json:"itemName"`
	QtyDepleted decimal.Decimal `json:"qtyDepleted"`
	TotalCogs   decimal.Decimal `json:"totalCogs"`
}

// CogsMetadata deliberately carries no timestamps: two calls over unchanged
// data must serialize byte-for-byte identically.
type CogsMetadata struct {
	FromDate      string `json:"fromDate"`
	ToDate        string `json:"toDate"`
	CostingMethod string `json:"costingMethod"`
}

type CogsReportResponse struct {
	Lines     []*CogsLine       `json:"lines"`
	Summary   []*CogsSummaryRow `json:"summary"`
	Metadata  CogsMetadata      `json:"metadata"`
	TotalCogs decimal.Decimal   `json:"totalCogs"`
	LineCount int               `json:"lineCount"`
}

// GetCogsReport aggregates persisted cost-breakdown lines for [fromDate, toDate).
// Ordering is fixed (item_id, then qty_depleted, then id) so repeated queries
// against unchanged data return identical output.
func GetCogsReport(ctx context.Context, fromDate, toDate time.Time) (*CogsReportResponse, error) {
	organizationId, ok := utils.GetOrganizationIdFromContext(ctx)
	if !ok || organizationId == "" {
		return nil, errors.New("organization id is required")
	}

	sql := `
SELECT
    cb.item_id,
    items.name AS item_name,
    cb.qty_depleted,
    cb.unit_cost,
    cb.line_cogs
FROM
    depletion_cost_breakdowns AS cb
    LEFT JOIN inventory_items AS items ON items.id = cb.item_id
WHERE
    cb.organization_id = @organizationId
    AND cb.posted_at >= @fromDate
    AND cb.posted_at < @toDate
ORDER BY
    cb.item_id ASC,
    cb.qty_depleted ASC,
    cb.id ASC
`

	db := config.GetDB()
	var lines []*CogsLine
	err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"organizationId": organizationId,
		"fromDate":       fromDate,
		"toDate":         toDate,
	}).Scan(&lines).Error
	if err != nil {
		return nil, err
	}

	return buildCogsResponse(lines, fromDate, toDate), nil
}

func buildCogsResponse(lines []*CogsLine, fromDate, toDate time.Time) *CogsReportResponse {
	response := CogsReportResponse{
		Lines: lines,
		Metadata: CogsMetadata{
			FromDate:      fromDate.Format("2006-01-02"),
			ToDate:        toDate.Format("2006-01-02"),
			CostingMethod: "WAC",
		},
		TotalCogs: decimal.Zero,
		LineCount: len(lines),
	}

	summaryByItem := map[int]*CogsSummaryRow{}
	for _, line := range lines {
		response.TotalCogs = response.TotalCogs.Add(line.LineCogs)
		row, ok := summaryByItem[line.ItemId]
		if !ok {
			row = &CogsSummaryRow{ItemId: line.ItemId, ItemName: line.ItemName}
			summaryByItem[line.ItemId] = row
			response.Summary = append(response.Summary, row)
		}
		row.QtyDepleted = row.QtyDepleted.Add(line.QtyDepleted)
		row.TotalCogs = row.TotalCogs.Add(line.LineCogs)
	}
	// Lines arrive ordered by item_id, so Summary inherits that order.

	if response.Lines == nil {
		response.Lines = []*CogsLine{}
	}
	if response.Summary == nil {
		response.Summary = []*CogsSummaryRow{}
	}
	return &response
}

// BuildCogsExcel renders the report as a spreadsheet for the export endpoint.
func BuildCogsExcel(report *CogsReportResponse) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "ItemId")
	f.SetCellValue(sheet, "B1", "ItemName")
	f.SetCellValue(sheet, "C1", "QtyDepleted")
	f.SetCellValue(sheet, "D1", "UnitCost")
	f.SetCellValue(sheet, "E1", "LineCogs")

	for i, line := range report.Lines {
		row := i + 2
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), line.ItemId)
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), line.ItemName)
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), line.QtyDepleted.String())
		f.SetCellValue(sheet, "D"+fmt.Sprint(row), line.UnitCost.String())
		f.SetCellValue(sheet, "E"+fmt.Sprint(row), line.LineCogs.String())
	}

	totalRow := len(report.Lines) + 3
	f.SetCellValue(sheet, "A"+fmt.Sprint(totalRow), "TotalCogs")
	f.SetCellValue(sheet, "E"+fmt.Sprint(totalRow), report.TotalCogs.String())
	return f, nil
}
