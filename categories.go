package cms

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type categoryRequest struct {
	Name        *string `json:"name" form:"name"`
	Description *string `json:"description" form:"description"`
}

func (a *App) handleListCategories(c echo.Context) error {
	cats, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	if cats == nil {
		cats = []Category{}
	}
	return c.JSON(http.StatusOK, cats)
}

func (a *App) handleGetCategory(c echo.Context) error {
	cat, err := a.Store.GetCategoryBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Category not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (a *App) handleCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	if req.Name == nil || *req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Name is required"})
	}
	desc := ""
	if req.Description != nil {
		desc = *req.Description
	}
	cat, err := a.Store.CreateCategory(*req.Name, desc)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusCreated, cat)
}

func (a *App) handleUpdateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Invalid request body"})
	}
	cat, err := a.Store.UpdateCategory(c.Param("id"), req.Name, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Category not found"})
		case errors.Is(err, ErrConflict):
			return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
		}
		return err
	}
	return c.JSON(http.StatusOK, cat)
}

func (a *App) handleDeleteCategory(c echo.Context) error {
	if err := a.Store.DeleteCategory(c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Category deleted"})
}

// handleSeed creates the starter categories if they do not exist yet.
// Safe to call repeatedly.
func (a *App) handleSeed(c echo.Context) error {
	seed := []struct{ name, description string }{
		{"Faith", "Articles about faith and belief"},
		{"Prayer", "Insights on prayer and communion with God"},
		{"Soul Winning", "Evangelism and reaching the lost"},
	}
	for _, s := range seed {
		if _, err := a.Store.GetCategoryBySlug(Slugify(s.name)); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
		if _, err := a.Store.CreateCategory(s.name, s.description); err != nil && !errors.Is(err, ErrConflict) {
			return err
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Database seeded successfully"})
}
