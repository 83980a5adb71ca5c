package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CustomErrorHandler creates a custom error handler for Echo
func CustomErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	errorTitle := "Internal Server Error"
	errorMessage := ""

	// Check if it's an Echo HTTPError
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code

		if msg, ok := he.Message.(string); ok && msg != "" {
			errorMessage = msg
		}

		switch code {
		case http.StatusNotFound:
			errorTitle = "Page Not Found"
			if errorMessage == "" {
				errorMessage = "The page you're looking for doesn't exist."
			}
		case http.StatusForbidden:
			errorTitle = "Access Denied"
			if errorMessage == "" {
				errorMessage = "You don't have permission to access this resource."
			}
		case http.StatusUnauthorized:
			errorTitle = "Unauthorized"
			if errorMessage == "" {
				errorMessage = "Please log in to continue."
			}
		case http.StatusBadRequest:
			errorTitle = "Bad Request"
			if errorMessage == "" {
				errorMessage = "The request could not be processed."
			}
		default:
			if errorMessage == "" {
				errorMessage = "Something went wrong. Please try again later."
			}
		}
	} else {
		errorMessage = "Something went wrong. Please try again later."
	}

	c.Logger().Error(err)

	if c.Response().Committed {
		return
	}

	userName, _ := c.Get("userName").(string)
	data := map[string]interface{}{
		"Title":        errorTitle,
		"ActiveNav":    "",
		"ErrorTitle":   errorTitle,
		"ErrorMessage": errorMessage,
		"UserName":     userName,
	}

	c.Response().Status = code
	if renderErr := c.Render(code, "error.html", data); renderErr != nil {
		// Fallback to plain text if template fails
		c.String(code, errorMessage)
	}
}
