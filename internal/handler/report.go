package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/export"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/query"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// ReportHandler serves the sales and purchases report queries and their
// downloadable exports.
type ReportHandler struct {
	svc *query.Service
	log zerolog.Logger
}

func NewReportHandler(svc *query.Service, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{svc: svc, log: log}
}

func (h *ReportHandler) domain(c *gin.Context) (query.Domain, bool) {
	d, ok := query.ParseDomain(c.Param("domain"))
	if !ok {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "unknown report domain")
	}
	return d, ok
}

// Query runs a filtered report and returns the rows.
func (h *ReportHandler) Query(c *gin.Context) {
	d, ok := h.domain(c)
	if !ok {
		return
	}
	var filters query.Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		badRequest(c)
		return
	}
	rows, err := h.svc.Fetch(c.Request.Context(), d, filters)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{
		"rows":  rows,
		"count": len(rows),
	})
}

// Download runs the same query and streams the result as a timestamped
// CSV or XLSX attachment, selected by the format query parameter.
func (h *ReportHandler) Download(c *gin.Context) {
	d, ok := h.domain(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "xlsx")
	if format != "csv" && format != "xlsx" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "format must be csv or xlsx")
		return
	}
	var filters query.Filters
	if err := c.ShouldBindJSON(&filters); err != nil {
		badRequest(c)
		return
	}
	rows, err := h.svc.Fetch(c.Request.Context(), d, filters)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	res := export.BuildResult(rows)
	name := export.Filename(format, time.Now())
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)

	if format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		err = export.WriteCSV(c.Writer, res)
	} else {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = export.WriteXLSX(c.Writer, res)
	}
	if err != nil {
		// Headers are already out; all that is left is to log.
		h.log.Error().Err(err).Str("format", format).Msg("export stream failed")
	}
}
