package ollama

// Message is a chat message in the Ollama API format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options holds model generation parameters
type Options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ChatRequest is a request to the /api/chat endpoint
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  Options   `json:"options,omitempty"`
}

// ChatResponse is a response from the /api/chat endpoint
type ChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
	Error   string  `json:"error,omitempty"`
}

// VersionResponse is a response from the /api/version endpoint
type VersionResponse struct {
	Version string `json:"version"`
}
