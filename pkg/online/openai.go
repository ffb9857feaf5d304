package online

import (
	"context"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	oaoption "github.com/openai/openai-go/v3/option"

	"github.com/teslashibe/go-srishti/internal/httpc"
)

// OpenAI is a Backend over the Chat Completions API.
type OpenAI struct {
	client  openai.Client
	config  *Config
	history *History
	logger  *slog.Logger
}

// NewOpenAI creates an OpenAI backend. An API key is required.
func NewOpenAI(opts []Option, extra ...oaoption.RequestOption) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.Model = DefaultOpenAIModel
	cfg.Apply(opts...)

	if cfg.APIKey == "" {
		return nil, WrapError("openai", ErrNoAPIKey)
	}
	if cfg.Model == "" {
		return nil, WrapError("openai", ErrNoModel)
	}

	reqOpts := []oaoption.RequestOption{
		oaoption.WithAPIKey(cfg.APIKey),
		oaoption.WithHTTPClient(httpc.Client),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, oaoption.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, extra...)

	history := NewHistory(cfg.MaxHistory)
	return &OpenAI{
		client:  openai.NewClient(reqOpts...),
		config:  cfg,
		history: history,
		logger:  cfg.Logger.With("component", "online.openai", "session", history.ID()),
	}, nil
}

// Name implements Backend.
func (o *OpenAI) Name() string {
	return "openai"
}

// History returns the conversation so far.
func (o *OpenAI) History() *History {
	return o.history
}

// Ask implements Backend.
func (o *OpenAI) Ask(ctx context.Context, query string) (string, error) {
	if o.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.Timeout)
		defer cancel()
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: o.messages(query),
		Model:    openai.ChatModel(o.config.Model),
	})
	if err != nil {
		return "", WrapError(o.Name(), err)
	}

	var reply string
	if len(resp.Choices) > 0 {
		reply = strings.TrimSpace(resp.Choices[0].Message.Content)
	}
	if reply == "" {
		return "", WrapError(o.Name(), ErrEmptyResponse)
	}

	o.history.Record(query, reply)
	o.logger.Debug("openai reply", "turns", o.history.Len())
	return reply, nil
}

func (o *OpenAI) messages(query string) []openai.ChatCompletionMessageParamUnion {
	past := o.history.Snapshot()
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(past)+2)
	if o.config.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(o.config.SystemPrompt))
	}
	for _, t := range past {
		if t.Role == RoleModel {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	return append(msgs, openai.UserMessage(query))
}

// Close implements Backend.
func (o *OpenAI) Close() error {
	return nil
}

// Verify OpenAI implements Backend at compile time.
var _ Backend = (*OpenAI)(nil)
