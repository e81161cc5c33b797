package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
	"github.com/katatrina/backoffice-BE/internal/remote"
)

func (server *Server) getMyProfile(ctx *gin.Context) {
	getRecordByID(ctx, currentUser(ctx).UserID(), server.svc.Users.GetUser)
}

type saveProfileRequest struct {
	Name  string `json:"nome" binding:"required"`
	Email string `json:"email"`
}

// saveMyProfile stores the caller's profile. The role comes from the access
// token and cannot be changed here.
func (server *Server) saveMyProfile(ctx *gin.Context) {
	var req saveProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	payload := currentUser(ctx)
	user := model.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  payload.Role,
	}
	if user.Email == "" {
		user.Email = payload.Email
	}

	existing, err := server.svc.Users.GetUser(ctx, payload.UserID())
	switch {
	case err == nil:
		user.Role = existing.Role
	case !errors.Is(err, remote.ErrNotFound):
		respondError(ctx, err)
		return
	}

	saved, err := server.svc.Users.SaveProfile(ctx, payload.UserID(), user)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, saved)
}

type listUsersRequest struct {
	Role model.UserRole `form:"role" binding:"omitempty,oneof=admin gestor operador"`
}

func (server *Server) listUsers(ctx *gin.Context) {
	var req listUsersRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse(err))
		return
	}

	users, err := server.svc.Users.List(ctx, req.Role)
	if err != nil {
		respondError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (server *Server) deleteUser(ctx *gin.Context) {
	deleteRecord(ctx, server.svc.Users.Delete)
}
