package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"subtrans/internal/services"
)

// Request is one chat completion call.
type Request struct {
	System      string
	User        string
	Temperature float64
}

// Response is the provider's answer.
type Response struct {
	Text         string
	FinishReason string
	Model        string
	PromptTokens int
	OutputTokens int
}

// Client sends completion requests. Implementations must be safe for
// concurrent use.
type Client interface {
	// Send issues one request and returns the model's text. Errors are
	// classified with the services markers so callers can decide whether
	// to retry.
	Send(ctx context.Context, req Request) (*Response, error)
}

// Settings carries the backend configuration shared by all providers.
type Settings struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
}

// Factory builds a Client from settings.
type Factory func(Settings) (Client, error)

var factories = map[string]Factory{
	"openrouter": func(s Settings) (Client, error) { return NewOpenRouterClient(s), nil },
	"openai":     func(s Settings) (Client, error) { return NewOpenRouterClient(s), nil },
}

// Register adds a named provider factory. Intended for tests and
// out-of-tree backends.
func Register(name string, factory Factory) {
	factories[strings.ToLower(strings.TrimSpace(name))] = factory
}

// Names lists the registered provider names, sorted.
func Names() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds the named provider client.
func New(name string, settings Settings) (Client, error) {
	factory, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "provider", "new",
			fmt.Sprintf("unknown provider %q (available: %s)", name, strings.Join(Names(), ", ")), nil)
	}
	return factory(settings)
}
