package reports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func sampleLines() []*CogsLine {
	return []*CogsLine{
		{ItemId: 1, ItemName: "Beef", QtyDepleted: dec("2"), UnitCost: dec("5000"), LineCogs: dec("10000")},
		{ItemId: 1, ItemName: "Beef", QtyDepleted: dec("3"), UnitCost: dec("5000"), LineCogs: dec("15000")},
		{ItemId: 2, ItemName: "Rice", QtyDepleted: dec("10"), UnitCost: dec("2000"), LineCogs: dec("20000")},
		{ItemId: 3, ItemName: "Oil", QtyDepleted: dec("5"), UnitCost: dec("3000"), LineCogs: dec("15000")},
		{ItemId: 3, ItemName: "Oil", QtyDepleted: dec("5"), UnitCost: dec("3000"), LineCogs: dec("15000")},
	}
}

func reportWindow() (time.Time, time.Time) {
	from, _ := time.Parse("2006-01-02", "2025-01-01")
	to, _ := time.Parse("2006-01-02", "2025-02-01")
	return from, to
}

func TestBuildCogsResponse_TotalsAndCount(t *testing.T) {
	from, to := reportWindow()
	resp := buildCogsResponse(sampleLines(), from, to)

	if resp.LineCount != 5 {
		t.Fatalf("expected 5 lines, got %d", resp.LineCount)
	}
	if !resp.TotalCogs.Equal(dec("75000")) {
		t.Fatalf("expected total 75000, got %s", resp.TotalCogs)
	}
}

func TestBuildCogsResponse_SummaryAggregatesPerItem(t *testing.T) {
	from, to := reportWindow()
	resp := buildCogsResponse(sampleLines(), from, to)

	if len(resp.Summary) != 3 {
		t.Fatalf("expected 3 summary rows, got %d", len(resp.Summary))
	}
	beef := resp.Summary[0]
	if beef.ItemId != 1 || !beef.QtyDepleted.Equal(dec("5")) || !beef.TotalCogs.Equal(dec("25000")) {
		t.Fatalf("unexpected beef summary: %+v", beef)
	}
	// summary order follows line order (item_id ascending)
	if resp.Summary[1].ItemId != 2 || resp.Summary[2].ItemId != 3 {
		t.Fatal("summary rows must keep item_id order")
	}
}

func TestBuildCogsResponse_RepeatedBuildsAreByteIdentical(t *testing.T) {
	from, to := reportWindow()

	first, err := json.Marshal(buildCogsResponse(sampleLines(), from, to))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(buildCogsResponse(sampleLines(), from, to))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("identical inputs must serialize byte-for-byte identically")
	}
}

func TestBuildCogsResponse_EmptyDataset(t *testing.T) {
	from, to := reportWindow()
	resp := buildCogsResponse(nil, from, to)

	if resp.LineCount != 0 || !resp.TotalCogs.Equal(decimal.Zero) {
		t.Fatalf("empty dataset must yield zero totals, got count=%d total=%s", resp.LineCount, resp.TotalCogs)
	}
	if resp.Lines == nil || resp.Summary == nil {
		t.Fatal("lines and summary must serialize as [] rather than null")
	}
	if resp.Metadata.CostingMethod != "WAC" {
		t.Fatalf("expected WAC costing method, got %s", resp.Metadata.CostingMethod)
	}
}
