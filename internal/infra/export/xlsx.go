// Package export renders reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the workbook written by MonthlyXLSX.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetDays    = "Dias"
	sheetSummary = "Resumo"
)

var dayHeadings = []string{
	"Data", "Faturamento (R$)", "Lucro Operacional (R$)", "Lucro Líquido (R$)", "Km Rodados", "Corridas", "Classificação",
}

// MonthlyXLSX writes a workbook with one row per recorded day and a
// summary sheet with the month totals.
func MonthlyXLSX(w io.Writer, report *domain.MonthlyReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetDays); err != nil {
		return err
	}
	if err := writeRow(f, sheetDays, 1, toAny(dayHeadings)); err != nil {
		return err
	}
	for i, d := range report.Days {
		row := []any{d.Date, d.GrossRevenue, d.OperationalProfit, d.NetProfit, d.KmDriven, d.TotalRides, string(d.Label)}
		if err := writeRow(f, sheetDays, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(sheetSummary); err != nil {
		return err
	}
	t := report.Totals
	summary := [][]any{
		{"Mês", report.Month},
		{"Dias registrados", t.RecordCount},
		{"Faturamento total (R$)", t.GrossRevenue},
		{"Custos operacionais (R$)", t.TotalOperationalCosts},
		{"Lucro operacional (R$)", t.OperationalProfit},
		{"Gastos pessoais (R$)", t.PersonalExpenses},
		{"Lucro líquido (R$)", t.NetProfit},
		{"Km rodados", t.KmDriven},
		{"Corridas", t.TotalRides},
		{"Horas trabalhadas", t.HoursWorking},
		{"Lucro médio por dia (R$)", t.AvgOperationalProfit},
	}
	for i, row := range summary {
		if err := writeRow(f, sheetSummary, i+1, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetDays, "A", "G", 20); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSummary, "A", "A", 28); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName is the attachment name for a month.
func FileName(month string) string {
	return fmt.Sprintf("relatorio-%s.xlsx", month)
}

func writeRow(f *excelize.File, sheet string, rowNo int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, rowNo)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
