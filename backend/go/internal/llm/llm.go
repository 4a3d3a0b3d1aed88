// Package llm provides a provider-neutral client for text generation.
// The memory pipeline only needs prompt-in, text-out; streaming and tool
// calling live with the conversational agent, not here.
package llm

import (
	"Mnemos/backend/go/internal/config"
	"context"
	"fmt"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
type LLM interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

var (
	_ LLM = (*Gemini)(nil)
	_ LLM = (*OpenAI)(nil)
	_ LLM = (*Ollama)(nil)
)

// NewClient 是一个工厂函数，根据配置创建并返回一个实现了 LLM 接口的客户端。
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg.Gemini.Model, cfg.Gemini.APIKey)
	case "openai":
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
