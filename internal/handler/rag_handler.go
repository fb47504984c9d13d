package handler

import (
	"errors"

	"github.com/careerflow-ai/news-rag/internal/port"
	"github.com/careerflow-ai/news-rag/internal/service"
	"github.com/gofiber/fiber/v3"
)

// RAGHandler handles the retrieval and answer endpoints.
type RAGHandler struct {
	retrieval *service.RetrievalService
}

// NewRAGHandler creates a new RAG handler.
func NewRAGHandler(retrieval *service.RetrievalService) *RAGHandler {
	return &RAGHandler{retrieval: retrieval}
}

// Register sets up the RAG routes.
func (h *RAGHandler) Register(router fiber.Router) {
	router.Post("/retrieve", h.Retrieve)
	router.Post("/ask", h.Ask)
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// Retrieve returns the top-k chunks most similar to the query.
func (h *RAGHandler) Retrieve(c fiber.Ctx) error {
	var body queryRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	hits, err := h.retrieval.Retrieve(c.Context(), body.Query, body.TopK)
	if err != nil {
		// A missing index is an expected state, not a server error.
		if errors.Is(err, port.ErrIndexUnavailable) {
			return c.JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"hits": hits})
}

// Ask retrieves grounding context, runs the provider chain, and returns
// the full answer envelope.
func (h *RAGHandler) Ask(c fiber.Ctx) error {
	var body queryRequest
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	answer, err := h.retrieval.Ask(c.Context(), body.Query, body.TopK)
	if err != nil {
		if errors.Is(err, port.ErrIndexUnavailable) {
			return c.JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(answer)
}
