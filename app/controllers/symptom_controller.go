package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/internal/pkg/ai"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
)

type symptomCheckRequest struct {
	Symptoms string `json:"symptoms"`
}

// symptomCheckResponse mirrors the structured output the model is prompted
// to return.
type symptomCheckResponse struct {
	Conditions []struct {
		Name        string `json:"name"`
		Probability string `json:"probability"`
		Severity    string `json:"severity"`
		Advice      string `json:"advice"`
	} `json:"conditions"`
	Note string `json:"note"`
}

// HandleSymptomCheck asks the model for three possible conditions matching
// the reported symptoms.
func HandleSymptomCheck(c *fiber.Ctx) error {
	var req symptomCheckRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	symptoms := strings.TrimSpace(req.Symptoms)
	if symptoms == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No symptoms provided."})
	}

	refund, ok := consumeFeatureOrReject(c, entitlements.FeatureSymptomCheck)
	if !ok {
		return nil
	}

	messages := []ai.Message{
		{Role: "system", Content: ai.SymptomSystemPrompt},
		{Role: "user", Content: ai.SymptomCheckPrompt(symptoms)},
	}

	var result symptomCheckResponse
	if err := getAIClient().CompleteJSON(c.Context(), messages, &result); err != nil {
		refund()
		log.Errorf("symptom check completion failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to analyze symptoms. Please try again."})
	}

	return c.JSON(result)
}
