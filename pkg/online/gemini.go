package online

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

// generativeLanguageScope is requested when no API key is configured and
// application default credentials are used instead.
const generativeLanguageScope = "https://www.googleapis.com/auth/generative-language"

// Gemini is a Backend over the Generative Language API.
type Gemini struct {
	service *generativelanguage.Service
	config  *Config
	history *History
	logger  *slog.Logger
}

// NewGemini creates a Gemini backend.
//
// With an API key the key authenticates every request. Without one, the
// backend falls back to application default credentials. extra client
// options are appended last and may override either.
func NewGemini(ctx context.Context, opts []Option, extra ...option.ClientOption) (*Gemini, error) {
	cfg := DefaultConfig()
	cfg.Model = DefaultGeminiModel
	cfg.Apply(opts...)

	if cfg.Model == "" {
		return nil, WrapError("gemini", ErrNoModel)
	}

	var clientOpts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	case len(extra) == 0:
		ts, err := google.DefaultTokenSource(ctx, generativeLanguageScope)
		if err != nil {
			return nil, WrapError("gemini", fmt.Errorf("%w: %v", ErrNoAPIKey, err))
		}
		clientOpts = append(clientOpts, option.WithTokenSource(ts))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, extra...)

	svc, err := generativelanguage.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError("gemini", err)
	}

	history := NewHistory(cfg.MaxHistory)
	return &Gemini{
		service: svc,
		config:  cfg,
		history: history,
		logger:  cfg.Logger.With("component", "online.gemini", "session", history.ID()),
	}, nil
}

// Name implements Backend.
func (g *Gemini) Name() string {
	return "gemini"
}

// History returns the conversation so far.
func (g *Gemini) History() *History {
	return g.history
}

// Ask implements Backend.
func (g *Gemini) Ask(ctx context.Context, query string) (string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	req := &generativelanguage.GenerateContentRequest{
		Contents: g.contents(query),
	}
	if g.config.SystemPrompt != "" {
		req.SystemInstruction = &generativelanguage.Content{
			Parts: []*generativelanguage.Part{{Text: g.config.SystemPrompt}},
		}
	}

	model := g.config.Model
	if !strings.HasPrefix(model, "models/") {
		model = "models/" + model
	}

	resp, err := g.service.Models.GenerateContent(model, req).Context(ctx).Do()
	if err != nil {
		return "", WrapError(g.Name(), err)
	}

	reply := responseText(resp)
	if reply == "" {
		return "", WrapError(g.Name(), ErrEmptyResponse)
	}

	g.history.Record(query, reply)
	g.logger.Debug("gemini reply", "turns", g.history.Len())
	return reply, nil
}

func (g *Gemini) contents(query string) []*generativelanguage.Content {
	past := g.history.Snapshot()
	out := make([]*generativelanguage.Content, 0, len(past)+1)
	for _, t := range past {
		out = append(out, &generativelanguage.Content{
			Role:  string(t.Role),
			Parts: []*generativelanguage.Part{{Text: t.Text}},
		})
	}
	return append(out, &generativelanguage.Content{
		Role:  string(RoleUser),
		Parts: []*generativelanguage.Part{{Text: query}},
	})
}

func responseText(resp *generativelanguage.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if p != nil {
				sb.WriteString(p.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text
		}
	}
	return ""
}

// Close implements Backend.
func (g *Gemini) Close() error {
	return nil
}

// Verify Gemini implements Backend at compile time.
var _ Backend = (*Gemini)(nil)
