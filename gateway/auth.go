package gateway

import (
	"net/http"
	"time"

	"github.com/example/storefront/pkg/models"
	"github.com/example/storefront/pkg/service"
	"github.com/gin-gonic/gin"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

func (g *Gateway) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	if g.config.IsProduction() {
		c.SetSameSite(http.SameSiteNoneMode)
	} else {
		c.SetSameSite(http.SameSiteLaxMode)
	}
	c.SetCookie(name, value, int(ttl.Seconds()), "/", "", g.config.IsProduction(), true)
}

func (g *Gateway) clearCookie(c *gin.Context, name string) {
	g.setCookie(c, name, "", -time.Second)
}

func (g *Gateway) setSessionCookies(c *gin.Context, s *service.Session) {
	g.setCookie(c, accessCookie, s.AccessToken, g.auth.AccessTTL())
	g.setCookie(c, refreshCookie, s.RefreshToken, g.auth.RefreshTTL())
}

func (g *Gateway) clearSessionCookies(c *gin.Context) {
	g.clearCookie(c, accessCookie)
	g.clearCookie(c, refreshCookie)
}

// @Summary Register a user
// @Tags auth
// @Router /api/v1/auth/register [post]
func (g *Gateway) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	session, err := g.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	g.setSessionCookies(c, session)
	ok(c, http.StatusCreated, "User registered successfully", gin.H{"user": session.User})
}

// @Summary Log in a user
// @Tags auth
// @Router /api/v1/auth/login [post]
func (g *Gateway) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	session, err := g.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	g.setSessionCookies(c, session)
	ok(c, http.StatusOK, "Login successful", gin.H{"user": session.User})
}

func (g *Gateway) logout(c *gin.Context) {
	user := currentUser(c)
	if err := g.auth.Logout(c.Request.Context(), user.ID); err != nil {
		fail(c, err)
		return
	}

	g.clearSessionCookies(c)
	ok(c, http.StatusOK, "User logged out successfully", nil)
}

// refreshToken rotates the session. The refresh token comes from its cookie or
// from the JSON body.
func (g *Gateway) refreshToken(c *gin.Context) {
	raw, _ := c.Cookie(refreshCookie)
	if raw == "" {
		var req refreshRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				fail(c, bindError(err))
				return
			}
		}
		raw = req.RefreshToken
	}

	session, err := g.auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		g.clearSessionCookies(c)
		fail(c, err)
		return
	}

	g.setSessionCookies(c, session)
	ok(c, http.StatusOK, "New access token generated", gin.H{
		"accessToken":  session.AccessToken,
		"refreshToken": session.RefreshToken,
	})
}

func (g *Gateway) currentUser(c *gin.Context) {
	user, err := g.auth.CurrentUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Current user fetched", gin.H{"user": user})
}

func (g *Gateway) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	if err := g.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "If a user exists, a password reset email has been sent.", nil)
}

func (g *Gateway) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	if err := g.auth.ResetPassword(c.Request.Context(), c.Param("resetToken"), req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, "Password reset successfully. You can now log in.", nil)
}

// @Summary Log in as the store admin
// @Tags auth
// @Router /api/v1/auth/admin/login [post]
func (g *Gateway) adminLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, bindError(err))
		return
	}

	tok, err := g.auth.AdminLogin(req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	g.setCookie(c, accessCookie, tok, g.auth.AdminTTL())
	ok(c, http.StatusOK, "Admin Login Successfully", gin.H{
		"adminEmail":  models.NormalizeEmail(req.Email),
		"accessToken": tok,
	})
}

func (g *Gateway) currentAdmin(c *gin.Context) {
	claims := currentAdmin(c)
	ok(c, http.StatusOK, "Current admin fetched successfully", gin.H{
		"email": claims.Email,
		"role":  claims.Role,
	})
}

func (g *Gateway) adminLogout(c *gin.Context) {
	g.clearCookie(c, accessCookie)
	ok(c, http.StatusOK, "Admin Successfully logged out", nil)
}
