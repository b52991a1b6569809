package summarize

import "context"

// Provider summarizes free-form text.
type Provider interface {
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)
	Name() string
}

// SummarizeRequest describes one summarization call.
type SummarizeRequest struct {
	Instruction string
	Text        string
}

// SummarizeResponse contains the summary and provider metadata.
type SummarizeResponse struct {
	Text         string
	ProviderName string
	Model        string
	LatencyMs    int64
}
