package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/marqtools/flowbuilder/internal/diagram"
	"github.com/marqtools/flowbuilder/internal/graph"
)

func (s *Server) handleCreateSession(c fiber.Ctx) error {
	var req createSessionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess := s.sessions.Create(graph.Meta{Name: req.Name, Description: req.Description})
	return c.Status(fiber.StatusCreated).JSON(renderSession(sess))
}

func (s *Server) handleImportSession(c fiber.Ctx) error {
	var req importSessionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess, err := s.sessions.CreateFromDefinition(req.Definition)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(renderSession(sess))
}

func (s *Server) handleGetSession(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(renderSession(sess))
}

func (s *Server) handleCloseSession(c fiber.Ctx) error {
	if err := s.sessions.Close(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSetMeta(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req metaRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess.SetMeta(graph.Meta{Name: req.Name, Description: req.Description})
	return c.JSON(renderSession(sess))
}

func (s *Server) handleAddNode(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req addNodeRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	id, err := sess.AddNode(req.Subtype, req.Position)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (s *Server) handleMoveNode(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req moveNodeRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess.MoveNode(c.Params("nodeID"), req.Position)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleConfigureNode(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req configureNodeRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	sess.ConfigureNode(c.Params("nodeID"), req.Config)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleRemoveNode(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	sess.RemoveNode(c.Params("nodeID"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleConnect(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req connectRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	edgeID := sess.Connect(req.Source, req.Target)
	if edgeID == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fiber.Map{"code": "CONNECTION_REJECTED", "message": "connection rejected"},
		})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": edgeID})
}

func (s *Server) handleDisconnect(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	sess.Disconnect(c.Params("edgeID"))
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSelect(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req selectRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := sess.Select(req.NodeID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleBeginConnection(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req beginConnectionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := sess.BeginConnection(req.FromNodeID, req.Pointer); err != nil {
		return err
	}
	return c.JSON(renderSession(sess))
}

func (s *Server) handleMovePointer(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req movePointerRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := sess.MovePointer(req.Pointer); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleCompleteConnection(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req completeConnectionRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	edgeID, err := sess.CompleteConnection(req.TargetNodeID)
	if err != nil {
		return err
	}
	// empty id means the drop was on an illegal target and nothing was made
	return c.JSON(fiber.Map{"id": edgeID, "created": edgeID != ""})
}

func (s *Server) handleCancelConnection(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.CancelConnection(); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleOpenConfig(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req openConfigRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := sess.OpenConfig(req.NodeID); err != nil {
		return err
	}
	return c.JSON(renderSession(sess))
}

func (s *Server) handleSaveConfig(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req configureNodeRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := sess.SaveConfig(req.Config); err != nil {
		return err
	}
	return c.JSON(renderSession(sess))
}

func (s *Server) handleCancelConfig(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	if err := sess.CancelConfig(); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleValidateSession(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	return c.JSON(sess.Validate())
}

func (s *Server) handleSessionDiagram(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	def := sess.Graph().Serialize(sess.Meta())
	c.Set(fiber.HeaderContentType, "text/vnd.mermaid; charset=utf-8")
	return c.SendString(diagram.RenderMermaid(def))
}

func (s *Server) handleSaveSession(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	a, err := sess.Save(c.Context(), s.store)
	if err != nil {
		return err
	}
	return c.JSON(a)
}

func (s *Server) handlePreview(c fiber.Ctx) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var req previewRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	out, err := sess.Preview(c.Context(), req.NodeID, req.Contact)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"result": out})
}
