package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/mattzapanta/squares/internal/models"
	"github.com/mattzapanta/squares/internal/squares"
	"github.com/mattzapanta/squares/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler renders grids and ledgers as downloadable files.
type ExportHandler struct {
	Engine *squares.Engine
}

func NewExportHandler(engine *squares.Engine) *ExportHandler {
	return &ExportHandler{Engine: engine}
}

// GridXLSX writes the pool grid as a spreadsheet. Once the pool is
// locked, row and column digit headers are included.
func (h *ExportHandler) GridXLSX(c *gin.Context) {
	id, ok := poolID(c)
	if !ok {
		return
	}
	view, err := h.Engine.Grid(c.Request.Context(), id)
	if err != nil {
		engineError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	var homeDigits, awayDigits []int
	if view.Pool.Locked() {
		homeDigits = squares.ParseDigits(view.Pool.HomeDigits)
		awayDigits = squares.ParseDigits(view.Pool.AwayDigits)
	}

	// away digits across the top, home digits down the side
	for col := 0; col < squares.GridSize; col++ {
		cell, _ := excelize.CoordinatesToCellName(col+2, 1)
		if awayDigits != nil {
			f.SetCellValue(sheet, cell, awayDigits[col])
		} else {
			f.SetCellValue(sheet, cell, "?")
		}
	}
	for row := 0; row < squares.GridSize; row++ {
		cell, _ := excelize.CoordinatesToCellName(1, row+2)
		if homeDigits != nil {
			f.SetCellValue(sheet, cell, homeDigits[row])
		} else {
			f.SetCellValue(sheet, cell, "?")
		}
		for col := 0; col < squares.GridSize; col++ {
			gc := view.Cells[row][col]
			cell, _ := excelize.CoordinatesToCellName(col+2, row+2)
			switch gc.Status {
			case models.SquareClaimed:
				f.SetCellValue(sheet, cell, gc.PlayerName)
			case models.SquarePending:
				f.SetCellValue(sheet, cell, gc.PlayerName+" (pending)")
			default:
				f.SetCellValue(sheet, cell, "")
			}
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"pool_%d_grid.xlsx\"", id))
	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to write spreadsheet")
	}
}

// LedgerCSV exports the caller's full ledger.
func (h *ExportHandler) LedgerCSV(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	entries, err := h.Engine.Entries(c.Request.Context(), actor.PlayerID)
	if err != nil {
		engineError(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"ledger_%s.csv\"",
		time.Now().Format("20060102")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"date", "type", "pool_id", "amount", "description"})
	for _, e := range entries {
		poolStr := ""
		if e.PoolID != nil {
			poolStr = fmt.Sprintf("%d", *e.PoolID)
		}
		writer.Write([]string{
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Type,
			poolStr,
			util.FormatCent(e.AmountCent),
			e.Description,
		})
	}
}
