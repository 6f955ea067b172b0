package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/flora-backend/internal/http/response"
	"github.com/yungbote/flora-backend/internal/platform/ctxutil"
	"github.com/yungbote/flora-backend/internal/services"
)

func requireUser(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	return rd, true
}

func requireEducator(c *gin.Context) (services.Educator, bool) {
	rd, ok := requireUser(c)
	if !ok {
		return services.Educator{}, false
	}
	return services.Educator{ID: rd.UserID, Name: rd.Name}, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_"+name, err)
		return uuid.Nil, false
	}
	return id, true
}
