package handlers

import "github.com/labstack/echo/v4"

// Breadcrumb represents a navigation trail
type Breadcrumb struct {
	Title string
	URL   string
}

// Helper to safely get string from context
func getStringFromContext(c echo.Context, key string) string {
	val := c.Get(key)
	if val == nil {
		return ""
	}
	strVal, ok := val.(string)
	if !ok {
		return ""
	}
	return strVal
}

func getUintFromContext(c echo.Context, key string) uint {
	val := c.Get(key)
	if val == nil {
		return 0
	}
	uintVal, ok := val.(uint)
	if !ok {
		return 0
	}
	return uintVal
}

// pageData builds the common template payload: title, nav state, the
// signed-in user, and any flash-style messages passed through the query
// string.
func pageData(c echo.Context, title, activeNav string, breadcrumbs []Breadcrumb) map[string]interface{} {
	return map[string]interface{}{
		"Title":       title,
		"ActiveNav":   activeNav,
		"Breadcrumbs": breadcrumbs,
		"UserName":    getStringFromContext(c, "userName"),
		"UserIsStaff": c.Get("userIsStaff") == true,
		"Error":       c.QueryParam("error"),
		"Info":        c.QueryParam("info"),
	}
}
