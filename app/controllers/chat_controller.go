package controllers

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/ai"
	"github.com/askdrhq/askdr/internal/pkg/database"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

const chatHistoryLimit = 10

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatReply struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
}

// HandleAskAI answers a general health question, continuing the session's
// conversation when a session id is supplied.
func HandleAskAI(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No message provided."})
	}

	refund, ok := consumeFeatureOrReject(c, entitlements.FeatureChat)
	if !ok {
		return nil
	}

	db := database.GetDB()
	var ownerID *uint
	if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
		id := userCtx.UserID
		ownerID = &id
	}

	chatSession, err := models.GetOrCreateChatSession(db, req.SessionID, ownerID, "general")
	if err != nil {
		refund()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to open chat session"})
	}

	messages := []ai.Message{{Role: "system", Content: ai.ChatSystemPrompt}}
	history, err := models.RecentChatHistory(db, chatSession.ID, chatHistoryLimit)
	if err != nil {
		log.Errorf("chat history load failed for session %s: %v", chatSession.ID, err)
	}
	for _, entry := range history {
		messages = append(messages,
			ai.Message{Role: "user", Content: entry.Question},
			ai.Message{Role: "assistant", Content: entry.Response},
		)
	}
	messages = append(messages, ai.Message{Role: "user", Content: message})

	var reply chatReply
	if err := getAIClient().CompleteJSON(c.Context(), messages, &reply); err != nil {
		refund()
		log.Errorf("chat completion failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to get a response. Please try again."})
	}

	// Persist the exchange; the reply is stored as JSON so history replays
	// keep their structure.
	rawReply, _ := json.Marshal(reply)
	chatLog := models.ChatLog{
		SessionID: chatSession.ID,
		UserID:    ownerID,
		Question:  message,
		Response:  string(rawReply),
	}
	if err := db.Create(&chatLog).Error; err != nil {
		log.Errorf("chat log save failed for session %s: %v", chatSession.ID, err)
	}

	return c.JSON(fiber.Map{
		"summary":         reply.Summary,
		"recommendations": reply.Recommendations,
		"session_id":      chatSession.ID,
	})
}

// HandleChatHistory returns the stored exchanges of one session.
func HandleChatHistory(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Missing session id"})
	}

	db := database.GetDB()
	var chatSession models.ChatSession
	if err := db.Where("id = ?", sessionID).First(&chatSession).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Session not found"})
	}

	// Sessions bound to a user are private to that user.
	if chatSession.UserID != nil {
		userCtx := usercontext.GetUserContext(c)
		if !userCtx.IsLoggedIn || userCtx.UserID != *chatSession.UserID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not your session"})
		}
	}

	history, err := models.RecentChatHistory(db, sessionID, 50)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load history"})
	}
	return c.JSON(fiber.Map{"session_id": sessionID, "messages": history})
}
