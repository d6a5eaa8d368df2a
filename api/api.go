package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PlanQueryParams selects part of the handler plan. Section is one of pre, post, events,
// calls, evmLogs, contractsContractEmitted; Name narrows it to one key.
type PlanQueryParams struct {
	Section string `schema:"section"`
	Name    string `schema:"name"`
}

type StatusResponse struct {
	Sink          string   `json:"sink"`
	Modules       []string `json:"modules"`
	ProcessedRows int64    `json:"processed_rows"`
	RowsPerSecond float64  `json:"rows_per_second"`
	AverageRate   float64  `json:"average_rate"`
}

func writeError(c *gin.Context, message string, code int) {
	c.AbortWithStatusJSON(code, Error{
		Code:    code,
		Message: message,
	})
}

var (
	BadRequestErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusBadRequest)
	}
	NotFoundErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusNotFound)
	}
	InternalErrorHandler = func(c *gin.Context) {
		writeError(c, "An unexpected error occurred.", http.StatusInternalServerError)
	}
	UnauthorizedErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusUnauthorized)
	}
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

func ParsePlanQueryParams(r *http.Request) (PlanQueryParams, error) {
	var params PlanQueryParams
	if err := decoder.Decode(&params, r.URL.Query()); err != nil {
		log.Error().Err(err).Msg("Error parsing query params")
		return PlanQueryParams{}, err
	}
	if err := ValidatePlanQueryParams(params); err != nil {
		return PlanQueryParams{}, err
	}
	return params, nil
}
