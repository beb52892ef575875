package tokens

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// Limit mirrors the upstream prompt-token ceiling; requests estimated above
// it are rejected before the relay call.
const Limit = 1239

// Budget is the pre-flight token estimate for one request. It is advisory,
// not exact accounting: image cost is a coarse stand-in since true image
// tokenization is model-internal.
type Budget struct {
	TextTokens         int
	ImageTokenEstimate int
	Total              int
	Limit              int
}

func (b Budget) Exceeded() bool {
	return b.Total > b.Limit
}

type Budgeter struct {
	codec tokenizer.Codec
}

// NewBudgeter loads the cl100k codec used by the gpt-4 model family.
func NewBudgeter() (*Budgeter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	return &Budgeter{codec: codec}, nil
}

// Estimate counts the text tokens and, when an image URL is present, adds
// ceil(len(url)/4) as the image estimate.
func (b *Budgeter) Estimate(content, imageURL string) (Budget, error) {
	ids, _, err := b.codec.Encode(content)
	if err != nil {
		return Budget{}, fmt.Errorf("encoding content: %w", err)
	}

	imageEstimate := 0
	if imageURL != "" {
		imageEstimate = (len(imageURL) + 3) / 4
	}

	return Budget{
		TextTokens:         len(ids),
		ImageTokenEstimate: imageEstimate,
		Total:              len(ids) + imageEstimate,
		Limit:              Limit,
	}, nil
}
