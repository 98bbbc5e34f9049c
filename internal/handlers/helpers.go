package handlers

import (
	"net/http"
	"strings"

	"relief_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// parseIDParam reads a positive id path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, param, entity string) (int64, bool) {
	id, err := utils.ParsePositiveInt64(c.Param(param))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+entity+" ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondValidationFailed(c, err.Error())
		return false
	}
	return true
}

func queryString(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

// queryInt64 returns nil for an absent parameter and responds 400 for a malformed one.
func queryInt64(c *gin.Context, key string) (*int64, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, true
	}
	v, err := utils.ParsePositiveInt64(raw)
	if err != nil {
		utils.RespondValidationFailed(c, "invalid "+key+": "+err.Error())
		return nil, false
	}
	return &v, true
}

func pageQuery(c *gin.Context) (int, int) {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}
