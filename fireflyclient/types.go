package fireflyclient

import "fmt"

// Result is the outcome of a successful generation call.
type Result struct {
	// ImageURL is the pre-signed URL of the generated image reference.
	ImageURL string
}

// Markdown renders the result as a Markdown image, ready for a chat response.
func (r *Result) Markdown() string {
	return fmt.Sprintf("![image](%s)\n", r.ImageURL)
}

// generateRequest is the JSON body sent to the generation endpoint.
type generateRequest struct {
	Prompt       string      `json:"prompt"`
	Size         sizePayload `json:"size"`
	ContentClass string      `json:"contentClass"`
}

type sizePayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// generateResponse is the JSON body returned by the generation endpoint. The
// error fields only appear on failures and on 2xx bodies missing outputs.
type generateResponse struct {
	Outputs []struct {
		Image struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"outputs"`
	Error  *upstreamError  `json:"error"`
	Errors []upstreamError `json:"errors"`
}

type upstreamError struct {
	Message string `json:"message"`
}
