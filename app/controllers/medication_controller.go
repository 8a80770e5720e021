package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/internal/pkg/ai"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

type medicationQARequest struct {
	Question string `json:"question"`
}

type medicationQAResponse struct {
	Summary     string   `json:"summary"`
	Precautions []string `json:"precautions"`
	Advice      string   `json:"advice"`
}

// HandleMedicationQA answers a medication question with structured
// precautions and consultation advice.
func HandleMedicationQA(c *fiber.Ctx) error {
	var req medicationQARequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No question provided."})
	}

	refund, ok := consumeFeatureOrReject(c, entitlements.FeatureMedicationQA)
	if !ok {
		return nil
	}

	messages := []ai.Message{
		{Role: "system", Content: ai.MedicationSystemPrompt},
		{Role: "user", Content: question},
	}

	var result medicationQAResponse
	if err := getAIClient().CompleteJSON(c.Context(), messages, &result); err != nil {
		refund()
		log.Errorf("medication qa completion failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to answer the question. Please try again."})
	}

	return c.JSON(result)
}
