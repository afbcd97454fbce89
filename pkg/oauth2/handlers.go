package oauth2

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookieName = "session_id"
	cookieMaxAge      = 86400 // 24 hours
	sessionContextKey = "session"
)

type Handler struct {
	manager      *Manager
	secureCookie bool
}

func NewHandler(manager *Manager, secureCookie bool) *Handler {
	return &Handler{manager: manager, secureCookie: secureCookie}
}

func (h *Handler) RegisterRoutes(router gin.IRouter) {
	router.GET("/auth/google", h.GoogleAuthHandler)
	router.GET("/auth/google/callback", h.GoogleCallbackHandler)
	router.GET("/api/auth/user", h.CurrentUserHandler)
	router.GET("/api/auth/logout", h.LogoutHandler)
}

// GoogleAuthHandler starts the Google sign-in flow
// @Summary Start Google sign-in
// @Description Redirects to Google. The optional state is where the browser returns after sign-in.
// @Tags auth
// @Param state query string false "Redirect target after sign-in"
// @Success 307 {string} string "Redirect"
// @Router /auth/google [get]
func (h *Handler) GoogleAuthHandler(c *gin.Context) {
	authURL, err := h.manager.AuthURL(c.Request.Context(), c.Query("state"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GoogleCallbackHandler completes Google sign-in
// @Summary Google sign-in callback
// @Description Creates the user on first sign-in, sets the session cookie and redirects to the frontend.
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "State"
// @Success 307 {string} string "Redirect"
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/google/callback [get]
func (h *Handler) GoogleCallbackHandler(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code or state"})
		return
	}

	session, redirect, err := h.manager.HandleCallback(c.Request.Context(), code, state)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookieName, session.ID, cookieMaxAge, "/", "", h.secureCookie, true)
	c.Redirect(http.StatusTemporaryRedirect, redirect)
}

// CurrentUserHandler returns the signed-in user
// @Summary Current user
// @Description Returns the session's user, or null when not signed in.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/user [get]
func (h *Handler) CurrentUserHandler(c *gin.Context) {
	session, ok := CurrentSession(c)
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":      strconv.FormatInt(session.UserID, 10),
		"user":    session.UserInfo,
		"expires": session.ExpiresAt,
	})
}

// LogoutHandler ends the session
// @Summary Logout
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/auth/logout [get]
func (h *Handler) LogoutHandler(c *gin.Context) {
	if sessionID, err := c.Cookie(sessionCookieName); err == nil {
		if err := h.manager.DeleteSession(c.Request.Context(), sessionID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
			return
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// SessionMiddleware attaches the session, if any, to the request. It never
// rejects; handlers decide whether a signed-in user is required.
func SessionMiddleware(manager *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID, err := c.Cookie(sessionCookieName); err == nil && sessionID != "" {
			if session, err := manager.GetSession(c.Request.Context(), sessionID); err == nil {
				SetSession(c, session)
			}
		}
		c.Next()
	}
}

func SetSession(c *gin.Context, session *Session) {
	c.Set(sessionContextKey, session)
}

func CurrentSession(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*Session)
	return session, ok
}

// CurrentUserID returns the internal user key of the signed-in user.
func CurrentUserID(c *gin.Context) (int64, bool) {
	session, ok := CurrentSession(c)
	if !ok || session.UserID == 0 {
		return 0, false
	}
	return session.UserID, true
}
