package summarize

import (
	"context"
	"fmt"
)

// BillPrompt instructs the provider to summarize one chunk of bill text.
const BillPrompt = "The following text is a Bill active in the House or Senate in the United States. " +
	"Please provide a succinct summary of the consequences of this bill passing or failing in a vote. " +
	"Target audience for this summary is the average American. Respond in Markdown."

// BillSummarizer summarizes bill text with the registry's default provider.
type BillSummarizer struct {
	registry *Registry
	provider string
}

func NewBillSummarizer(registry *Registry, provider string) *BillSummarizer {
	return &BillSummarizer{registry: registry, provider: provider}
}

func (s *BillSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if s == nil || s.registry == nil {
		return "", fmt.Errorf("bill summarizer is not initialized")
	}
	provider, err := s.registry.Provider(s.provider)
	if err != nil {
		return "", err
	}
	resp, err := provider.Summarize(ctx, SummarizeRequest{
		Instruction: BillPrompt,
		Text:        text,
	})
	if err != nil {
		return "", fmt.Errorf("summarize with %s: %w", provider.Name(), err)
	}
	return resp.Text, nil
}
