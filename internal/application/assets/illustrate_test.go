package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upllyft-worksheet-api/internal/config"
	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/infrastructure/openai"
)

func TestBuildImagePrompt(t *testing.T) {
	tests := []struct {
		name        string
		ws          *entity.Worksheet
		nodePrompt  string
		custom      string
		contains    []string
		notContains []string
	}{
		{
			name: "full profile",
			ws: &entity.Worksheet{
				AgeRangeMin: 36,
				AgeRangeMax: 60,
				ColorMode:   entity.ColorModeFullColor,
				Interests:   []string{"dinosaurs", "trains"},
				Setting:     "HOME",
			},
			nodePrompt: "a child threading beads",
			contains: []string{
				"a child threading beads",
				"aged 3 to 5 years",
				"Bright full-color palette",
				"Theme it around: dinosaurs, trains.",
				"Scene setting: HOME.",
				"no text in the image",
			},
		},
		{
			name:       "custom prompt overrides node prompt",
			ws:         &entity.Worksheet{},
			nodePrompt: "original prompt",
			custom:     "a friendly dragon",
			contains:   []string{"a friendly dragon"},
			notContains: []string{
				"original prompt",
			},
		},
		{
			name:       "age unset falls back to generic phrase",
			ws:         &entity.Worksheet{},
			nodePrompt: "stacking blocks",
			contains:   []string{"Suitable for young children."},
		},
		{
			name: "grayscale mode",
			ws: &entity.Worksheet{
				ColorMode: entity.ColorModeGrayscale,
			},
			nodePrompt: "washing hands",
			contains:   []string{"Grayscale only"},
		},
		{
			name: "line art mode",
			ws: &entity.Worksheet{
				ColorMode: entity.ColorModeLineArt,
			},
			nodePrompt: "washing hands",
			contains:   []string{"line art", "suitable for coloring in"},
		},
		{
			name: "age upper bound rounds up to whole years",
			ws: &entity.Worksheet{
				AgeRangeMin: 24,
				AgeRangeMax: 66,
			},
			nodePrompt: "jumping",
			contains:   []string{"aged 2 to 6 years"},
		},
		{
			name:       "no interests or setting omits those clauses",
			ws:         &entity.Worksheet{},
			nodePrompt: "drawing shapes",
			notContains: []string{
				"Theme it around",
				"Scene setting",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildImagePrompt(tt.ws, tt.nodePrompt, tt.custom)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, bad := range tt.notContains {
				assert.NotContains(t, got, bad)
			}
		})
	}
}

func TestRegenerateComposesFromSourcePrompt(t *testing.T) {
	var lastPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		lastPrompt = req.Prompt
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created":1,"data":[{"url":"https://images.example/out.png"}]}`))
	}))
	defer srv.Close()

	client, err := openai.NewImageClient(&config.ImageGenConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Model:   "dall-e-3",
		Size:    "1024x1024",
		Quality: "standard",
	})
	require.NoError(t, err)
	il := NewIllustrator(client)

	ws := &entity.Worksheet{ColorMode: entity.ColorModeGrayscale}
	items := il.GenerateAll(context.Background(), ws, []ImageTask{
		{NodeID: "n-1", Prompt: "a child brushing teeth", Label: "Brush teeth"},
	})
	require.Len(t, items, 1)
	ill := items[0]
	assert.Equal(t, "a child brushing teeth", ill.SourcePrompt)
	first := ill.Prompt
	assert.Equal(t, 1, strings.Count(first, "Simple, friendly illustration"))

	// 重生成后提示词保持稳定，风格包装不叠加
	require.NoError(t, il.Regenerate(context.Background(), ws, ill, ""))
	assert.Equal(t, first, ill.Prompt)
	assert.Equal(t, 1, strings.Count(lastPrompt, "Simple, friendly illustration"))
	assert.Equal(t, 1, strings.Count(lastPrompt, "Grayscale only"))

	// 自定义提示词替换基底后同样只包装一次
	require.NoError(t, il.Regenerate(context.Background(), ws, ill, "a child washing hands"))
	assert.Equal(t, "a child washing hands", ill.SourcePrompt)
	assert.Contains(t, ill.Prompt, "a child washing hands")
	assert.NotContains(t, ill.Prompt, "a child brushing teeth")
	assert.Equal(t, 1, strings.Count(ill.Prompt, "Simple, friendly illustration"))
}
