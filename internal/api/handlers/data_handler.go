package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ekoatlas/data-api/internal/models"
	"github.com/ekoatlas/data-api/internal/services"
	"github.com/gin-gonic/gin"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	DataModeHeader  = "X-Data-Mode"
)

// DataServer produces the body of a classified data request.
type DataServer interface {
	Serve(ctx context.Context, req *models.DataRequest) (*services.Response, error)
}

// DataHandler serves dataset files and structured queries
type DataHandler struct {
	service      DataServer
	cacheControl string
}

// NewDataHandler creates a data handler. Successful responses are cacheable
// for maxAge seconds.
func NewDataHandler(service DataServer, maxAge int) *DataHandler {
	return &DataHandler{
		service:      service,
		cacheControl: fmt.Sprintf("public, max-age=%d", maxAge),
	}
}

// ErrorResponse is the body of every failed data request
type ErrorResponse struct {
	Error string `json:"error"`
}

// Data godoc
// @Summary Dataset lookup
// @Description Serves /source/<file> as a raw passthrough, or /v1/<section>/<topic>/<digit>/<year>/<visualization> through the section manifest. Year "all" without a precomputed file merges every yearly file in ascending year order.
// @Tags data
// @Produce json
// @Param path path string true "source/<relative path> or v1/<section>/<topic>/<digit>/<year>/<visualization>"
// @Param cityname query string false "City filter (aliases: city, il); Turkish diacritics and case are ignored"
// @Success 200 {object} object
// @Header 200 {string} X-Data-Mode "passthrough, manifest or aggregated"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /data/{path} [get]
func (h *DataHandler) Data(c *gin.Context) {
	req, err := models.ParseDataRequest(c.Param("path"), c.Request.URL.Query())
	if err != nil {
		h.fail(c, err)
		return
	}

	resp, err := h.service.Serve(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Cache-Control", h.cacheControl)
	c.Header(DataModeHeader, string(resp.Mode))
	c.Data(http.StatusOK, contentTypeJSON, resp.Body)
}

func (h *DataHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(models.HTTPStatus(err), ErrorResponse{Error: err.Error()})
}
