package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/erciktiburak/school-attendance-api/pkg/errors"
	"github.com/erciktiburak/school-attendance-api/pkg/response"
)

// 请求参数校验失败
const codeInvalidParams = 10001

// respondError 将业务错误按分类映射为 HTTP 状态码；非业务错误统一 500
func respondError(c *gin.Context, err error) {
	appErr := pkgerrors.As(err)
	if appErr == nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case pkgerrors.KindNotFound:
		status = http.StatusNotFound
	case pkgerrors.KindConflict:
		status = http.StatusConflict
	case pkgerrors.KindUnauthorized:
		status = http.StatusUnauthorized
	case pkgerrors.KindForbidden:
		status = http.StatusForbidden
	case pkgerrors.KindValidation:
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Error(c, status, appErr.Code, appErr.Message)
}

func badParams(c *gin.Context, err error) {
	response.BadRequest(c, codeInvalidParams, "Invalid request parameters: "+err.Error())
}
