package controllers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/askdrhq/askdr/app/models"
	"github.com/askdrhq/askdr/internal/pkg/ai"
	"github.com/askdrhq/askdr/internal/pkg/cache"
	"github.com/askdrhq/askdr/internal/pkg/database"
	"github.com/askdrhq/askdr/internal/pkg/entitlements"
	"github.com/askdrhq/askdr/internal/pkg/usercontext"
)

type mentalHealthChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// HandleAnonymousChat runs the supportive mental health conversation. Guests
// may use it within the session limit; the session id keeps context across
// requests without requiring an account.
func HandleAnonymousChat(c *fiber.Ctx) error {
	var req mentalHealthChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "No message provided."})
	}

	refund, ok := consumeFeatureOrReject(c, entitlements.FeatureMentalHealth)
	if !ok {
		return nil
	}

	db := database.GetDB()
	var ownerID *uint
	if userCtx := usercontext.GetUserContext(c); userCtx.IsLoggedIn {
		id := userCtx.UserID
		ownerID = &id
	}

	chatSession, err := models.GetOrCreateChatSession(db, req.SessionID, ownerID, "mentalhealth")
	if err != nil {
		refund()
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to open chat session"})
	}

	messages := []ai.Message{{Role: "system", Content: ai.MentalHealthSystemPrompt}}
	history, err := models.RecentChatHistory(db, chatSession.ID, chatHistoryLimit)
	if err != nil {
		log.Errorf("mental health history load failed for session %s: %v", chatSession.ID, err)
	}
	for _, entry := range history {
		messages = append(messages,
			ai.Message{Role: "user", Content: entry.Question},
			ai.Message{Role: "assistant", Content: entry.Response},
		)
	}
	messages = append(messages, ai.Message{Role: "user", Content: message})

	reply, err := getAIClient().Complete(c.Context(), messages)
	if err != nil {
		refund()
		log.Errorf("mental health completion failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to get a response. Please try again."})
	}

	chatLog := models.ChatLog{
		SessionID: chatSession.ID,
		UserID:    ownerID,
		Question:  message,
		Response:  reply,
	}
	if err := db.Create(&chatLog).Error; err != nil {
		log.Errorf("mental health log save failed for session %s: %v", chatSession.ID, err)
	}

	return c.JSON(fiber.Map{
		"reply":      reply,
		"session_id": chatSession.ID,
	})
}

type journalEntryRequest struct {
	Content string `json:"content"`
}

// HandleJournalEntries lists or creates journal entries for the current user.
func HandleJournalEntries(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	db := database.GetDB()

	if c.Method() == fiber.MethodPost {
		var req journalEntryRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
		}
		content := strings.TrimSpace(req.Content)
		if content == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Entry content is required"})
		}
		entry := models.JournalEntry{UserID: userCtx.UserID, Content: content}
		if err := db.Create(&entry).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save entry"})
		}
		return c.Status(fiber.StatusCreated).JSON(entry)
	}

	var entries []models.JournalEntry
	if err := db.Where("user_id = ?", userCtx.UserID).Order("created_at DESC").Limit(100).Find(&entries).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load entries"})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// journalPromptDate picks the date the current prompt batch belongs to.
// Prompts rotate at 8am, so before 8am we serve yesterday's batch.
func journalPromptDate(now time.Time) string {
	if now.Hour() < 8 {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format("2006-01-02")
}

// HandleJournalPrompts returns the three daily journal prompts, cached in
// Redis until the next 8am rotation.
func HandleJournalPrompts(c *fiber.Ctx) error {
	cacheKey := "mentalhealth:journal_prompts:" + journalPromptDate(time.Now())
	if raw, err := cache.Get(cacheKey); err == nil && raw != "" {
		var prompts []string
		if json.Unmarshal([]byte(raw), &prompts) == nil && len(prompts) > 0 {
			return c.JSON(fiber.Map{"prompts": prompts})
		}
	}

	messages := []ai.Message{
		{Role: "system", Content: ai.JournalPromptsSystemPrompt},
		{Role: "user", Content: "What are today's 3 journal prompts?"},
	}
	var prompts []string
	if err := getAIClient().CompleteJSON(c.Context(), messages, &prompts); err != nil {
		log.Errorf("journal prompts completion failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "upstream_failed", "message": "Failed to load today's prompts"})
	}
	if len(prompts) > 3 {
		prompts = prompts[:3]
	}

	if raw, err := json.Marshal(prompts); err == nil {
		if err := cache.Set(cacheKey, string(raw), 24*time.Hour); err != nil {
			log.Debugf("journal prompt cache write failed: %v", err)
		}
	}
	return c.JSON(fiber.Map{"prompts": prompts})
}

// HandleWellnessTip returns the daily wellness tip, cached per day. The
// fallback tip is served when the upstream model fails.
func HandleWellnessTip(c *fiber.Ctx) error {
	cacheKey := "mentalhealth:wellness_tip:" + time.Now().Format("2006-01-02")
	if tip, err := cache.Get(cacheKey); err == nil && tip != "" {
		return c.JSON(fiber.Map{"tip": tip})
	}

	messages := []ai.Message{
		{Role: "system", Content: ai.WellnessTipSystemPrompt},
		{Role: "user", Content: "What is today's wellness tip?"},
	}
	tip, err := getAIClient().Complete(c.Context(), messages)
	if err != nil || tip == "" {
		if err != nil {
			log.Errorf("wellness tip completion failed: %v", err)
		}
		return c.JSON(fiber.Map{"tip": ai.FallbackWellnessTip})
	}

	if err := cache.Set(cacheKey, tip, 24*time.Hour); err != nil {
		log.Debugf("wellness tip cache write failed: %v", err)
	}
	return c.JSON(fiber.Map{"tip": tip})
}

type moodLogRequest struct {
	Mood int `json:"mood"`
}

// HandleLogMood records today's 1-5 mood rating.
func HandleLogMood(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req moodLogRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Mood < 1 || req.Mood > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Mood must be between 1 and 5"})
	}

	entry := models.MoodLog{UserID: userCtx.UserID, Mood: req.Mood}
	if err := database.GetDB().Create(&entry).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to log mood"})
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// HandleMoodHistory returns the last 30 days of mood ratings, oldest first.
func HandleMoodHistory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	since := time.Now().AddDate(0, 0, -30)

	var logs []models.MoodLog
	err := database.GetDB().
		Where("user_id = ? AND logged_at >= ?", userCtx.UserID, since).
		Order("logged_at ASC").Find(&logs).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load mood history"})
	}

	history := make([]fiber.Map, 0, len(logs))
	for _, entry := range logs {
		history = append(history, fiber.Map{
			"date": entry.LoggedAt.Format("2006-01-02"),
			"mood": entry.Mood,
		})
	}
	return c.JSON(history)
}
