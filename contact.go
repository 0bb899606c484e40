package cms

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type contactRequest struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

// handleSubmitContact appends a visitor message. Open to the public;
// only field presence is validated, the email format is not.
func (a *App) handleSubmitContact(c echo.Context) error {
	var req contactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name, email and message are required"})
	}
	if _, err := a.Store.CreateContact(req.Name, req.Email, req.Subject, req.Message); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Message sent successfully"})
}

func (a *App) handleListContacts(c echo.Context) error {
	msgs, err := a.Store.ListContacts()
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []ContactMessage{}
	}
	return c.JSON(http.StatusOK, msgs)
}
