package llmextract

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/tutordex/aggregator/pkg/config"
)

// Extractor is the C5 LLM Extractor: it assembles a prompt, calls an
// OpenAI-compatible chat-completions endpoint through a per-process
// circuit breaker, and parses the reply into a ParsedAssignment. Grounded
// on the chat-completions call shape in hyperifyio-goresearch's LLM
// orchestrator, with the breaker wired per sony/gobreaker's own API
// (the pack only exercises gobreaker in a test, not production code —
// noted in DESIGN.md).
type Extractor struct {
	client  *openai.Client
	cfg     *config.LLMConfig
	prompts *PromptBuilder
	breaker *gobreaker.CircuitBreaker
}

// New builds an Extractor. apiKey is read from the environment variable
// named by cfg.APIKeyEnv; an unset key is allowed (some local/mocked
// endpoints don't require one).
func New(cfg *config.LLMConfig, prompts *PromptBuilder) *Extractor {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = cfg.APIURL
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	threshold := cfg.CircuitThreshold
	if threshold == 0 {
		threshold = 6
	}
	cooldown := cfg.CircuitCooldown
	if cooldown <= 0 {
		cooldown = 2 * time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-extract",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("LLM circuit breaker state change", "name", name, "from", from, "to", to)
		},
	})

	return &Extractor{
		client:  openai.NewClientWithConfig(clientCfg),
		cfg:     cfg,
		prompts: prompts,
		breaker: breaker,
	}
}

// Extract runs one extraction call for a raw post. exampleKey selects the
// (channel, agency_registry) example set (spec §4.5 (b)); an empty key
// falls back to the general set.
func (e *Extractor) Extract(ctx context.Context, exampleKey, rawText string) Result {
	start := time.Now()
	prompt := e.prompts.Build(exampleKey, rawText)

	base := Result{
		PromptSHA256:  prompt.promptSHA256,
		ExampleSetSig: prompt.exampleSetSig,
		Model:         e.cfg.Model,
	}

	raw, err := e.breaker.Execute(func() (interface{}, error) {
		reqCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
		return e.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model:       e.cfg.Model,
			Temperature: e.cfg.Temperature,
			MaxTokens:   e.cfg.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: prompt.systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt.userPrompt},
			},
		})
	})
	base.LatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			base.ErrorKind = ErrorCircuitOpen
			base.ErrorMsg = err.Error()
			return base
		}
		base.ErrorKind, base.ErrorMsg = classifyError(err)
		return base
	}

	resp := raw.(openai.ChatCompletionResponse)
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		base.ErrorKind = ErrorEmptyResponse
		base.ErrorMsg = "LLM returned no content"
		return base
	}

	content := stripCodeFences(resp.Choices[0].Message.Content)
	decoded, err := decodeJSON(content)
	if err != nil {
		base.ErrorKind = ErrorInvalidJSON
		base.ErrorMsg = err.Error()
		return base
	}

	assignment, err := toParsedAssignment(decoded)
	if err != nil {
		base.ErrorKind = ErrorSchemaShapeMismatch
		base.ErrorMsg = err.Error()
		return base
	}

	assignment.RawText = rawText
	base.Assignment = assignment
	return base
}

// State reports the breaker's current state, exposed for health/metrics
// reporting (spec §4.5's worker-health surface).
func (e *Extractor) State() string {
	return fmt.Sprintf("%v", e.breaker.State())
}
