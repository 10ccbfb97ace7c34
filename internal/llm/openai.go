package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultChatTimeout = 60 * time.Second

// OpenAIClient serves GenerateText through the OpenAI Chat Completions API.
type OpenAIClient struct {
	model  openai.ChatModel
	client *openai.Client
	log    *slog.Logger
}

// NewOpenAIClient builds a client with defaults against api.openai.com.
// SDK retries are disabled so failures surface the same way as LlamaClient's.
func NewOpenAIClient(apiKey string, model openai.ChatModel, log *slog.Logger) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	cli := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)
	return &OpenAIClient{
		model:  model,
		client: &cli,
		log:    log,
	}, nil
}

func (c *OpenAIClient) GenerateText(ctx context.Context, req GenerationRequest) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("nil openai client")
	}
	if err := req.Validate(); err != nil {
		return "", err
	}
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            buildMessages(req.Prompt),
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		Temperature:         openai.Float(req.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			c.log.Error("openai returned error status", "status", apiErr.StatusCode, "err", apiErr)
			return "", &ServiceError{StatusCode: apiErr.StatusCode}
		}
		c.log.Error("error communicating with openai", "err", err)
		return "", &ConnectionError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Close is a no-op; the SDK shares http.DefaultClient.
func (c *OpenAIClient) Close() error {
	return nil
}

func buildMessages(prompt string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(prompt),
				},
			},
		},
	}
}
