// Package handlers implements the portal's HTTP endpoint handlers.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/auth"
	"github.com/silvanatrade/distributor-portal/internal/models"
)

// contextUserKey is the gin context key holding the authenticated *models.User.
const contextUserKey = "user"

// currentUser returns the authenticated user from the context, or nil.
func currentUser(c *gin.Context) *models.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// requestMeta captures the caller's network identity for audit entries.
func requestMeta(c *gin.Context) auth.RequestMeta {
	return auth.RequestMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
