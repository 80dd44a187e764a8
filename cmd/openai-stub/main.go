// Command openai-stub is a minimal OpenAI-compatible endpoint for exercising
// the model-backed pipeline stages offline. It answers the bibliographic
// prompts with fixed JSON and every vision prompt with a canned description.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

// promptText flattens a message content field: either a plain string or a
// list of typed parts as sent for vision requests.
func promptText(content any) (text string, hasImage bool) {
	switch v := content.(type) {
	case string:
		return v, false
	case []any:
		var b strings.Builder
		for _, part := range v {
			m, ok := part.(map[string]any)
			if !ok {
				continue
			}
			switch m["type"] {
			case "text":
				if s, ok := m["text"].(string); ok {
					b.WriteString(s)
				}
			case "image_url":
				hasImage = true
			}
		}
		return b.String(), hasImage
	}
	return "", false
}

func respond(prompt string, hasImage bool) string {
	switch {
	case hasImage:
		return "A stub description of the submitted image."
	case strings.Contains(prompt, "front matter"), strings.Contains(prompt, "前置部分"):
		return `{"title":"Stub Title","authors":["Stub Author"],"affiliations":[],"keywords":["stub"],"venue":"Stub Venue","year":"2024"}`
	case strings.Contains(prompt, "reference section"), strings.Contains(prompt, "参考文献部分"):
		return `[{"index":1,"text":"Stub Author. A stub citation. 2024."}]`
	default:
		return "A short stub summary of the document."
	}
}

func main() {
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		prompt := ""
		hasImage := false
		if len(req.Messages) > 0 {
			prompt, hasImage = promptText(req.Messages[len(req.Messages)-1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "stub",
			"object": "chat.completion",
			"model":  model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]any{
					"role":    "assistant",
					"content": respond(prompt, hasImage),
				},
			}},
		})
	})

	log.Printf("openai-stub listening on %s (model %s)", addr, model)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}
