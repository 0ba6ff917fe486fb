package ai

import "context"

// noneProvider is used when no AI backend is configured.
type noneProvider struct{}

func (noneProvider) Name() string {
	return "none"
}

func (noneProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return "", ErrUnavailable
}

func init() {
	Register("none", func(args interface{}) (IProvider, error) {
		return noneProvider{}, nil
	})
}
