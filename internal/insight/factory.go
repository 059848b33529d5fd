package insight

import (
	"fmt"

	"github.com/hpungsan/sift/internal/config"
	"github.com/hpungsan/sift/internal/llm"
)

// New builds the Extractor selected by cfg.
func New(cfg config.ExtractorConfig) (Extractor, error) {
	switch cfg.Provider {
	case "", config.ExtractorNone:
		return NopExtractor{}, nil
	case config.ExtractorStatic:
		if cfg.ScriptPath == "" {
			return nil, fmt.Errorf("static extractor requires extractor.script_path")
		}
		return LoadStatic(cfg.ScriptPath)
	case config.ExtractorOpenAI, config.ExtractorOpenRouter:
		p, err := llm.NewProvider(llm.Config{
			Provider:  cfg.Provider,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			APIKeyEnv: cfg.APIKeyEnv,
		})
		if err != nil {
			return nil, err
		}
		return NewLLMExtractor(p), nil
	default:
		return nil, fmt.Errorf("unknown extractor provider: %q", cfg.Provider)
	}
}
