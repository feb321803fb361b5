package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/jwekke/ai-cli/internal/cache"
	"github.com/jwekke/ai-cli/internal/mistral"
	"github.com/jwekke/ai-cli/internal/proto"
)

var errNoModels = errors.New("no chat models available")

type modelLister interface {
	Models(ctx context.Context) ([]proto.Model, error)
}

func requireAPIKey(cfg *Config) (string, error) {
	if key := cfg.apiKey(); key != "" {
		return key, nil
	}
	return "", cliError{
		err: newUserErrorf(
			"You can grab one at %s.",
			stderrStyles().Link.Render("https://console.mistral.ai/api-keys"),
		),
		reason: fmt.Sprintf(
			"%s environment variable is required.",
			stderrStyles().InlineCode.Render(cfg.APIKeyEnv),
		),
	}
}

// fetchModels returns the chat models, going through the catalog cache
// unless caching is off.
func fetchModels(ctx context.Context, cfg *Config, client modelLister) ([]proto.Model, error) {
	fetch := func() ([]proto.Model, error) {
		logger.Debug("fetching models", "base-url", cfg.BaseURL)
		return client.Models(ctx) //nolint:wrapcheck
	}
	if cfg.NoCache {
		return fetch()
	}

	mc, err := cache.NewModels(cfg.CachePath)
	if err != nil {
		logger.Warn("could not open model cache", "err", err)
		return fetch()
	}
	models, err := mc.Fetch(fetch)
	if err != nil && len(models) > 0 {
		logger.Warn("could not cache models", "err", err)
		return models, nil
	}
	return models, err //nolint:wrapcheck
}

func modelOptions(models []proto.Model) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(models))
	for _, m := range models {
		label := m.ID
		if m.Description != "" {
			label += " · " + m.Description
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}

func selectModel(ctx context.Context, cfg *Config) (string, error) {
	key, err := requireAPIKey(cfg)
	if err != nil {
		return "", err
	}
	client := mistral.New(mistral.Config{
		AuthToken:  key,
		BaseURL:    cfg.BaseURL,
		MaxRetries: cfg.MaxRetries,
	})

	models, err := fetchModels(ctx, cfg, client)
	if err != nil {
		return "", handleRequestError(err, cfg.Model)
	}
	if len(models) == 0 {
		return "", cliError{errNoModels, "The Mistral API has no chat models available."}
	}

	chosen := cfg.Model
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a model").
				Options(modelOptions(models)...).
				Value(&chosen),
		),
	).WithAccessible(!isInputTTY())
	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", cliError{err, "Model selection canceled."}
		}
		return "", cliError{err, "Could not select a model."}
	}

	if err := saveDefaultModel(cfg.SettingsPath, chosen); err != nil {
		return "", cliError{err, "Failed to save model to config."}
	}
	cfg.Model = chosen
	return chosen, nil
}
