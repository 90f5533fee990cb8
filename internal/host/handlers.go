package host

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nhle/todo-board/internal/events"
	"github.com/nhle/todo-board/internal/model"
)

func (s *Server) getTodos(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	todos, err := s.store.LoadTodos(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, todos)
}

func (s *Server) putTodos(c echo.Context) error {
	var todos []model.Task
	if err := bindList(c, &todos); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveTodos(c.Request().Context(), todos); err != nil {
		return err
	}
	s.emit(c, events.TodosUpdated, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getCategories(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	categories, err := s.store.LoadCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (s *Server) putCategories(c echo.Context) error {
	var categories []model.Category
	if err := bindList(c, &categories); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveCategories(c.Request().Context(), categories); err != nil {
		return err
	}
	s.emit(c, events.CategoriesUpdated, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getTrash(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trash, err := s.store.LoadTrash(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trash)
}

func (s *Server) putTrash(c echo.Context) error {
	var trash []model.Task
	if err := bindList(c, &trash); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SaveTrash(c.Request().Context(), trash); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) restoreItem(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.RestoreTodoItem(c.Request().Context(), id); err != nil {
		return err
	}
	s.emit(c, events.TodosUpdated, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteItem(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteTodoItemPermanently(c.Request().Context(), id); err != nil {
		return err
	}
	s.emit(c, events.TodosUpdated, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) emptyTrash(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.EmptyTrashBin(c.Request().Context()); err != nil {
		return err
	}
	s.emit(c, events.TodosUpdated, nil)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getPrefs(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.store.LoadPrefs(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

func (s *Server) putPrefs(c echo.Context) error {
	var prefs model.Prefs
	if err := c.Bind(&prefs); err != nil {
		return err
	}
	if err := c.Validate(&prefs); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.SavePrefs(c.Request().Context(), prefs.Normalize()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// bindList decodes a JSON array body and validates every element.
func bindList[T any](c echo.Context, out *[]T) error {
	if err := c.Bind(out); err != nil {
		return err
	}
	if *out == nil {
		*out = []T{}
	}
	for i := range *out {
		if err := c.Validate(&(*out)[i]); err != nil {
			return err
		}
	}
	return nil
}
