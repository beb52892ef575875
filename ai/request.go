package ai

// ChatRequest is the outbound chat-completions body. Message content is a
// list of typed parts; at most one image part per request.
type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type Message struct {
	Role    string `json:"role"`
	Content []Part `json:"content"`
}

type Part struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

type ImageRef struct {
	URL string `json:"url"`
}

func NewChatRequest(model, content, imageURL string, maxTokens int) *ChatRequest {
	parts := []Part{{Type: "text", Text: content}}
	if imageURL != "" {
		parts = append(parts, Part{Type: "image_url", ImageURL: &ImageRef{URL: imageURL}})
	}
	return &ChatRequest{
		Model:     model,
		Messages:  []Message{{Role: "user", Content: parts}},
		MaxTokens: maxTokens,
	}
}

type ChatCompletion struct {
	Id      string    `json:"id"`
	Model   string    `json:"model"`
	Choices []Choice  `json:"choices"`
	Error   *ApiError `json:"error"`
}

type Choice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
}

type ApiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ModelList struct {
	Data []struct {
		Id string `json:"id"`
	} `json:"data"`
}
