package api

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/diagram"
	"github.com/marqtools/flowbuilder/internal/store"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

func (s *Server) handleListAutomations(c fiber.Ctx) error {
	filter := store.ListFilter{Status: c.Query("status")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
		}
		filter.Limit = n
	}

	autos, err := s.store.ListAutomations(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"automations": autos})
}

func (s *Server) handleGetAutomation(c fiber.Ctx) error {
	a, err := s.store.GetAutomation(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (s *Server) handleDeleteAutomation(c fiber.Ctx) error {
	if err := s.store.DeleteAutomation(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSetAutomationStatus(c fiber.Ctx) error {
	var req setStatusRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.store.SetStatus(c.Context(), c.Params("id"), req.Status); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleListRevisions(c fiber.Ctx) error {
	revs, err := s.store.ListRevisions(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"revisions": revs})
}

// handleEditAutomation opens an editor session over a stored automation.
func (s *Server) handleEditAutomation(c fiber.Ctx) error {
	sess, err := s.sessions.Open(c.Context(), s.store, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(renderSession(sess))
}

// handleValidateDefinition runs the full pipeline over a raw definition
// without creating a session.
func (s *Server) handleValidateDefinition(c fiber.Ctx) error {
	var def schema.AutomationDefinition
	if err := c.Bind().JSON(&def); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(s.validator.ValidateDefinition(&def))
}

func (s *Server) handleAutomationDiagram(c fiber.Ctx) error {
	a, err := s.store.GetAutomation(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/vnd.mermaid; charset=utf-8")
	return c.SendString(diagram.RenderMermaid(&a.Definition))
}

func (s *Server) handleCatalog(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"node_types": s.catalog.List()})
}

func (s *Server) handleVocabulary(c fiber.Ctx) error {
	ch := schema.Channel(c.Params("channel"))
	statuses := catalog.StatusVocabulary(ch)
	if statuses == nil {
		return schema.NewErrorf(schema.ErrCodeNotFound, "unknown channel %q", string(ch))
	}
	return c.JSON(fiber.Map{"channel": ch, "statuses": statuses})
}
