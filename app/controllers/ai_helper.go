package controllers

import (
	"sync"

	"github.com/askdrhq/askdr/internal/pkg/ai"
)

var (
	aiClient     *ai.Client
	aiClientOnce sync.Once
)

// getAIClient returns the shared completion client. Built lazily so the env
// file is loaded before the first use.
func getAIClient() *ai.Client {
	aiClientOnce.Do(func() {
		aiClient = ai.NewClientFromEnv()
	})
	return aiClient
}
