package server

import (
	"context"
	"errors"

	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// Orchestrator is the single entry point the transport forwards utterances to.
type Orchestrator interface {
	Orchestrate(ctx context.Context, userPrompt string) string
}

type queryRequest struct {
	Message string `json:"message"`
}

type queryResponse struct {
	Response string `json:"response"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server is the thin transport in front of the orchestrator: one
// request/response endpoint and one persistent websocket channel, both
// carrying {"message"} in and {"response"} or {"error"} out.
type Server struct {
	app          *fiber.App
	orchestrator Orchestrator
}

func ProvideServer(orchestrator Orchestrator) *Server {
	s := &Server{orchestrator: orchestrator}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberrecover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Post("/api/query", s.handleQuery)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleSocket))

	s.app = app
	return s
}

func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "message is required"})
	}

	reply, err := s.respond(c.UserContext(), req.Message)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "something went wrong, please try again"})
	}
	return c.JSON(queryResponse{Response: reply})
}

func (s *Server) handleSocket(conn *websocket.Conn) {
	for {
		var req queryRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}

		if req.Message == "" {
			if err := conn.WriteJSON(errorResponse{Error: "message is required"}); err != nil {
				return
			}
			continue
		}

		reply, err := s.respond(context.Background(), req.Message)
		if err != nil {
			if err := conn.WriteJSON(errorResponse{Error: "something went wrong, please try again"}); err != nil {
				return
			}
			continue
		}

		if err := conn.WriteJSON(queryResponse{Response: reply}); err != nil {
			return
		}
	}
}

// respond shields the transport from any residual fault below the
// orchestrator. Users get a generic payload; details go to the log.
func (s *Server) respond(ctx context.Context, message string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Orchestrator panicked", zap.Any("panic", r))
			err = errors.New("orchestrator failure")
		}
	}()
	return s.orchestrator.Orchestrate(ctx, message), nil
}

func (s *Server) Listen(addr string) error {
	logger.Info("HTTP server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}
