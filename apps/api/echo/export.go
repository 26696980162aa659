package echoapi

import (
	"encoding/csv"
	"net/http"

	"github.com/jung-kurt/gofpdf"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// writeCSV streams a tabular report as a CSV attachment.
func writeCSV(ctx echo.Context, filename string, header []string, rows [][]string) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return errors.Wrap(err, "writing CSV row")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing CSV")
}

// writePDF renders a tabular report as a one-page PDF attachment.
func writePDF(ctx echo.Context, filename, title string, header []string, rows [][]string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, title)
	pdf.Ln(14)

	colWidth := 190.0 / float64(len(header))
	pdf.SetFont("Helvetica", "B", 10)
	for _, h := range header {
		pdf.CellFormat(colWidth, 8, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		for _, cell := range row {
			pdf.CellFormat(colWidth, 8, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "application/pdf")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	res.WriteHeader(http.StatusOK)
	return errors.Wrap(pdf.Output(res), "rendering PDF")
}
