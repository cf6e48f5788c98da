package grok

// Chat models selectable in /converse, in display order.
var ChatModels = []string{
	"grok-4-1-fast-reasoning",
	"grok-4-1-fast-non-reasoning",
	"grok-code-fast-1",
	"grok-4-fast-reasoning",
	"grok-4-fast-non-reasoning",
	"grok-4-0709",
	"grok-3-mini",
	"grok-3",
	"grok-2-vision-1212",
}

// DefaultChatModel is used when /converse is invoked without a model option.
const DefaultChatModel = "grok-4-1-fast-reasoning"

// Image generation models selectable in /image.
var ImageModels = []string{
	"grok-imagine-image-pro",
	"grok-imagine-image",
	"grok-2-image-1212",
}

// DefaultImageModel is used when /image is invoked without a model option.
const DefaultImageModel = "grok-imagine-image"

// VideoModel is the only video generation model.
const VideoModel = "grok-imagine-video"

var reasoningModels = map[string]bool{
	"grok-4-1-fast-reasoning": true,
	"grok-4-fast-reasoning":   true,
	"grok-4-0709":             true,
	"grok-3-mini":             true,
}

// IsReasoningModel reports whether model supports a reasoning effort setting.
func IsReasoningModel(model string) bool {
	return reasoningModels[model]
}
