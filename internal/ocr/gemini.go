package ocr

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

const transcribePrompt = `Transcribe all text visible in this screenshot, exactly as written, one line per line of text. Do not add commentary.`

// Gemini extracts amounts by asking a vision model to transcribe the
// screenshot, then scanning the transcript for the currency suffix.
type Gemini struct {
	client   *genai.Client
	model    string
	currency string
}

// NewGemini creates an extractor. The client reads its API key from the
// environment (GEMINI_API_KEY).
func NewGemini(client *genai.Client, model, currency string) *Gemini {
	return &Gemini{client: client, model: model, currency: currency}
}

func (g *Gemini) Amount(ctx context.Context, image []byte, mimeType string) (decimal.Decimal, error) {
	if len(image) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			{Text: transcribePrompt},
		},
	}}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return ParseAmount(resp.Text(), g.currency)
}

var _ Extractor = (*Gemini)(nil)
