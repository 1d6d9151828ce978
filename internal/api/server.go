package api

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/marqtools/flowbuilder/internal/catalog"
	"github.com/marqtools/flowbuilder/internal/editor"
	"github.com/marqtools/flowbuilder/internal/store"
	"github.com/marqtools/flowbuilder/internal/validation"
	"github.com/marqtools/flowbuilder/pkg/schema"
)

// Server wires the editor, catalog and store into an HTTP surface.
type Server struct {
	sessions  *editor.Manager
	store     store.Store
	catalog   catalog.Lookup
	validator *validation.GraphValidator
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewServer creates the HTTP layer. The store may be shared with other
// components; the server never closes it.
func NewServer(sessions *editor.Manager, st store.Store, cat catalog.Lookup, gv *validation.GraphValidator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		sessions:  sessions,
		store:     st,
		catalog:   cat,
		validator: gv,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "flowbuilder",
		ErrorHandler: s.errorHandler,
	})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/catalog", s.handleCatalog)
	app.Get("/catalog/vocabulary/:channel", s.handleVocabulary)

	sess := app.Group("/sessions")
	sess.Post("/", s.handleCreateSession)
	sess.Post("/import", s.handleImportSession)
	sess.Get("/:id", s.handleGetSession)
	sess.Delete("/:id", s.handleCloseSession)
	sess.Put("/:id/meta", s.handleSetMeta)

	sess.Post("/:id/nodes", s.handleAddNode)
	sess.Put("/:id/nodes/:nodeID/position", s.handleMoveNode)
	sess.Patch("/:id/nodes/:nodeID/config", s.handleConfigureNode)
	sess.Delete("/:id/nodes/:nodeID", s.handleRemoveNode)

	sess.Post("/:id/edges", s.handleConnect)
	sess.Delete("/:id/edges/:edgeID", s.handleDisconnect)

	sess.Post("/:id/select", s.handleSelect)

	sess.Post("/:id/connection/begin", s.handleBeginConnection)
	sess.Post("/:id/connection/move", s.handleMovePointer)
	sess.Post("/:id/connection/complete", s.handleCompleteConnection)
	sess.Post("/:id/connection/cancel", s.handleCancelConnection)

	sess.Post("/:id/config/open", s.handleOpenConfig)
	sess.Post("/:id/config/save", s.handleSaveConfig)
	sess.Post("/:id/config/cancel", s.handleCancelConfig)

	sess.Get("/:id/validate", s.handleValidateSession)
	sess.Get("/:id/diagram", s.handleSessionDiagram)
	sess.Post("/:id/save", s.handleSaveSession)
	sess.Post("/:id/preview", s.handlePreview)

	autos := app.Group("/automations")
	autos.Get("/", s.handleListAutomations)
	autos.Get("/:id", s.handleGetAutomation)
	autos.Delete("/:id", s.handleDeleteAutomation)
	autos.Put("/:id/status", s.handleSetAutomationStatus)
	autos.Get("/:id/revisions", s.handleListRevisions)
	autos.Get("/:id/diagram", s.handleAutomationDiagram)
	autos.Post("/:id/edit", s.handleEditAutomation)
	autos.Post("/validate", s.handleValidateDefinition)

	return app
}

// errorHandler maps FlowError codes onto HTTP statuses and renders the
// structured error body.
func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	var fe *schema.FlowError
	if errors.As(err, &fe) {
		return c.Status(statusFor(fe.Code)).JSON(fiber.Map{"error": fe})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{
			"error": fiber.Map{"code": "HTTP_ERROR", "message": fiberErr.Message},
		})
	}

	s.logger.Error("unhandled request error", slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{"code": "INTERNAL", "message": "internal error"},
	})
}

func statusFor(code string) int {
	switch code {
	case schema.ErrCodeNotFound:
		return fiber.StatusNotFound
	case schema.ErrCodeMalformedDefinition:
		return fiber.StatusBadRequest
	case schema.ErrCodeValidation, schema.ErrCodeExpression:
		return fiber.StatusUnprocessableEntity
	case schema.ErrCodeInvalidTransition, schema.ErrCodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// bind decodes and validates a JSON request body.
func (s *Server) bind(c fiber.Ctx, dst any) error {
	if err := c.Bind().JSON(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func (s *Server) session(c fiber.Ctx) (*editor.Session, error) {
	return s.sessions.Get(c.Params("id"))
}
