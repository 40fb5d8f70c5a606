package controllers

import (
	"fmt"
	"net/http"
	"time"

	"solarcatalog/models"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const exportTimeFormat = "2006-01-02 15:04"

var (
	s1 = `
	{
		"border": [
			{
			"type": "left",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "top",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "right",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "bottom",
			"color": "#000000",
			"style": 1
			}
		],
		"fill": {
			"type": "pattern",
			"pattern": 1,
			"color": ["#f5b301"]
		},
		"font": {
			"bold": true
		},
		"alignment": {
			"shrink_to_fit": true,
			"horizontal": "center"
		}
	}
	`
	s2 = `
	{
		"border": [
			{
			"type": "left",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "top",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "right",
			"color": "#000000",
			"style": 1
			},
			{
			"type": "bottom",
			"color": "#000000",
			"style": 1
			}
		],
		"fill": {
			"type": "pattern",
			"pattern": 1
		},
		"alignment": {
			"shrink_to_fit": true
		}
	}
	`
)

func exportLocation() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.UTC
	}
	return loc
}

func exportFileName(now time.Time) string {
	return fmt.Sprintf("report_products_%s.xlsx", now.In(exportLocation()).Format("20060102_150405"))
}

func handleExcelProducts(c *gin.Context, products []models.Product) {
	if len(products) == 0 {
		sendError(c, http.StatusNotFound, "products-not-found")
		return
	}

	f := excelize.NewFile()

	sheet := "Products"
	f.NewSheet(sheet)
	// delete default sheet
	f.DeleteSheet("Sheet1")

	if err := f.SetColWidth(sheet, "A", "B", 30); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := f.SetColWidth(sheet, "C", "C", 60); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}
	if err := f.SetColWidth(sheet, "D", "G", 20); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	headerStyle, err := f.NewStyle(s1)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	dataStyle, err := f.NewStyle(s2)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	streamWriter, err := f.NewStreamWriter(sheet)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err = streamWriter.SetRow("A1", []interface{}{
		excelize.Cell{StyleID: headerStyle, Value: "Category"},
		excelize.Cell{StyleID: headerStyle, Value: "Name"},
		excelize.Cell{StyleID: headerStyle, Value: "Description"},
		excelize.Cell{StyleID: headerStyle, Value: "Status"},
		excelize.Cell{StyleID: headerStyle, Value: "WhatsApp"},
		excelize.Cell{StyleID: headerStyle, Value: "Created At"},
		excelize.Cell{StyleID: headerStyle, Value: "Updated At"}}); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	loc := exportLocation()
	for n, product := range products {
		row := make([]interface{}, 7)
		row[0] = excelize.Cell{StyleID: dataStyle, Value: product.Category}
		row[1] = excelize.Cell{StyleID: dataStyle, Value: product.Name}
		row[2] = excelize.Cell{StyleID: dataStyle, Value: product.Description}
		row[3] = excelize.Cell{StyleID: dataStyle, Value: string(product.Status)}
		row[4] = excelize.Cell{StyleID: dataStyle, Value: product.WhatsappNumber}
		row[5] = excelize.Cell{StyleID: dataStyle, Value: product.CreatedAt.In(loc).Format(exportTimeFormat)}
		row[6] = excelize.Cell{StyleID: dataStyle, Value: product.UpdatedAt.In(loc).Format(exportTimeFormat)}

		cell, _ := excelize.CoordinatesToCellName(1, n+2)
		if err = streamWriter.SetRow(cell, row); err != nil {
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := streamWriter.Flush(); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	fileName := exportFileName(time.Now())

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment;filename=\""+fileName+"\"")

	if _, err := f.WriteTo(c.Writer); err != nil {
		zap.L().Error("write excel export failed", zap.Error(err))
	}
}
