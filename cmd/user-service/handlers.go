package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/costeo/internal/auth"
	"github.com/MikeMC777/costeo/internal/httpx"
	"github.com/MikeMC777/costeo/internal/user"
)

func routes(r *gin.Engine, repo user.Repository, acc *user.Accounts, signer *auth.Signer) {
	r.POST("/auth/signup", signupHandler(acc))
	r.POST("/auth/login", loginHandler(acc))

	authed := r.Group("/", httpx.Auth(signer))
	authed.GET("/users/me", meHandler(acc))

	admin := r.Group("/admin", httpx.Auth(signer), httpx.RequireRole(auth.RoleAdmin))
	admin.GET("/users", listUsersHandler(repo))
	admin.PUT("/users/:id/role", changeRoleHandler(acc))
	admin.DELETE("/users/:id", deleteUserHandler(repo))
	admin.PUT("/tenants/:id/plan", grantPlanHandler(acc))
}

func writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidInput):
		httpx.Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		httpx.Error(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, user.ErrAlreadyExist):
		httpx.Error(c, http.StatusConflict, "email already registered")
	case errors.Is(err, user.ErrNotFound), errors.Is(err, user.ErrTenantNotFound):
		httpx.Error(c, http.StatusNotFound, err.Error())
	default:
		_ = c.Error(err)
		httpx.Error(c, http.StatusInternalServerError, "internal error")
	}
}

func setTokenCookie(c *gin.Context, tok *user.TokenResponse) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", tok.Token, int(auth.TokenTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
}

// @Summary  Create a business account and its owner
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.SignupRequest true "signup"
// @Success  201 {object} user.TokenResponse
// @Failure  400,409 {object} map[string]string
// @Router   /auth/signup [post]
func signupHandler(acc *user.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.SignupRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		tok, err := acc.Signup(c.Request.Context(), in)
		if err != nil {
			writeUserError(c, err)
			return
		}
		setTokenCookie(c, tok)
		c.JSON(http.StatusCreated, tok)
	}
}

// @Summary  Log in with email and password
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body user.LoginRequest true "credentials"
// @Success  200 {object} user.TokenResponse
// @Failure  400,401 {object} map[string]string
// @Router   /auth/login [post]
func loginHandler(acc *user.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.LoginRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		tok, err := acc.Login(c.Request.Context(), in)
		if err != nil {
			writeUserError(c, err)
			return
		}
		setTokenCookie(c, tok)
		c.JSON(http.StatusOK, tok)
	}
}

// @Summary  Current user, tenant and effective plan
// @Tags     users
// @Produce  json
// @Security Bearer
// @Success  200 {object} user.MeResponse
// @Router   /users/me [get]
func meHandler(acc *user.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		me, err := acc.Me(c.Request.Context(), httpx.UserID(c))
		if err != nil {
			writeUserError(c, err)
			return
		}
		c.JSON(http.StatusOK, me)
	}
}

// @Summary  Search users (back-office)
// @Tags     admin
// @Produce  json
// @Security Bearer
// @Param    q      query string false "name or email"
// @Param    limit  query int    false "page size (max 100)"
// @Param    offset query int    false "offset"
// @Router   /admin/users [get]
func listUsersHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := httpx.Page(c)
		q := strings.TrimSpace(c.Query("q"))
		items, err := repo.List(c.Request.Context(), q, limit, offset)
		if err != nil {
			writeUserError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items, "q": q, "limit": limit, "offset": offset})
	}
}

// @Summary  Change a user's role (back-office)
// @Tags     admin
// @Accept   json
// @Security Bearer
// @Param    id   path string           true "user id"
// @Param    body body user.RoleRequest true "role"
// @Success  204
// @Router   /admin/users/{id}/role [put]
func changeRoleHandler(acc *user.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.RoleRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		id := c.Param("id")
		if id == httpx.UserID(c) && in.Role != auth.RoleAdmin {
			httpx.Error(c, http.StatusBadRequest, "admins cannot demote themselves")
			return
		}
		if err := acc.ChangeRole(c.Request.Context(), id, strings.TrimSpace(in.Role)); err != nil {
			writeUserError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete a user (back-office)
// @Tags     admin
// @Security Bearer
// @Param    id path string true "user id"
// @Success  204
// @Router   /admin/users/{id} [delete]
func deleteUserHandler(repo user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == httpx.UserID(c) {
			httpx.Error(c, http.StatusBadRequest, "admins cannot delete themselves")
			return
		}
		ok, err := repo.Delete(c.Request.Context(), id)
		if err != nil {
			writeUserError(c, err)
			return
		}
		if !ok {
			httpx.Error(c, http.StatusNotFound, "user not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Grant a plan by hand (back-office)
// @Tags     admin
// @Accept   json
// @Produce  json
// @Security Bearer
// @Param    id   path string                true "tenant id"
// @Param    body body user.PlanGrantRequest true "plan"
// @Success  200 {object} user.Tenant
// @Router   /admin/tenants/{id}/plan [put]
func grantPlanHandler(acc *user.Accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in user.PlanGrantRequest
		if err := c.ShouldBindJSON(&in); err != nil {
			httpx.Error(c, http.StatusBadRequest, "invalid body")
			return
		}
		t, err := acc.GrantPlan(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			writeUserError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}
