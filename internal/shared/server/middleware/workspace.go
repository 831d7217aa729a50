package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const workspaceIDKey = "workspaceId"

// Workspace stores the workspace scope from the query string or the
// X-Workspace-ID header so downstream handlers and logging can read it.
// Handlers that receive the workspace in a request body call
// SetWorkspaceID themselves.
func Workspace() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Query("workspace_id"))
		if id == "" {
			id = strings.TrimSpace(c.GetHeader("X-Workspace-ID"))
		}
		if id != "" {
			c.Set(workspaceIDKey, id)
		}
		c.Next()
	}
}

// SetWorkspaceID records the workspace scope on the request context.
func SetWorkspaceID(c *gin.Context, id string) {
	if strings.TrimSpace(id) != "" {
		c.Set(workspaceIDKey, id)
	}
}

// WorkspaceIDFromContext fetches the workspace ID set for the request.
func WorkspaceIDFromContext(c *gin.Context) string {
	if v, ok := c.Get(workspaceIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
