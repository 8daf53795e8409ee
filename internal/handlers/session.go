package handlers

import (
    "errors"
    "net/http"

    "github.com/gin-gonic/gin"

    "ads-dashboard/internal/storage"
)

const (
    sessionCookie = "dashboard_session"
    sessionKey    = "session"
)

// Session attaches the caller's session to the request, starting a new one
// (and setting the cookie) when the cookie is missing or expired.
func (h *Handler) Session() gin.HandlerFunc {
    return func(c *gin.Context) {
        id, _ := c.Cookie(sessionCookie)
        session := h.store.GetOrCreate(id)
        if session.ID != id {
            c.SetCookie(sessionCookie, session.ID, int(h.config.SessionTTL.Seconds()), "/", "", false, true)
        }
        c.Set(sessionKey, session)
        c.Next()
    }
}

// RequireAuth rejects requests whose session has not passed the password gate.
func (h *Handler) RequireAuth() gin.HandlerFunc {
    return func(c *gin.Context) {
        if !currentSession(c).Authenticated {
            c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Login required"})
            return
        }
        c.Next()
    }
}

type loginRequest struct {
    Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
    var req loginRequest
    if err := c.ShouldBindJSON(&req); err != nil {
        c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
        return
    }

    session := currentSession(c)
    if err := h.store.Authenticate(session.ID, req.Password); err != nil {
        if errors.Is(err, storage.ErrUnauthorized) {
            h.logger.WithField("session_id", session.ID).Warn("Rejected dashboard login")
            c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password"})
            return
        }
        h.respondError(c, err)
        return
    }

    c.JSON(http.StatusOK, gin.H{"status": "authenticated"})
}

func (h *Handler) Logout(c *gin.Context) {
    h.store.Delete(currentSession(c).ID)
    c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
    c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

func currentSession(c *gin.Context) storage.Session {
    if v, ok := c.Get(sessionKey); ok {
        if session, ok := v.(storage.Session); ok {
            return session
        }
    }
    return storage.Session{}
}
