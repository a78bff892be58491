// Package models contains data types and constants for the cleanfire chat client.
package models

// Endpoints for the Gemini API
const (
	EndpointBase = "https://generativelanguage.googleapis.com/v1beta"

	// MethodStreamGenerate is appended to "models/<name>"
	MethodStreamGenerate = "streamGenerateContent"
)

// Environment variables holding the API key, in lookup order
const (
	EnvAPIKey         = "GEMINI_API_KEY"
	EnvAPIKeyFallback = "API_KEY"
)

// User-visible fixed texts
const (
	Greeting          = "The path is inward. Speak."
	ErrorLeadIn       = "The connection faltered."
	UnknownError      = "An unknown error occurred."
	InitErrorFallback = "Failed to initialize AI session."
	InputPlaceholder  = "The mind is a battlefield. Speak."
	AppTitle          = "CLEAN FIRE"
)

// Model is a Gemini model identifier
type Model struct {
	Name string
}

// Available models
var (
	Model25Flash = Model{Name: "gemini-2.5-flash"}

	// DefaultModel is the model every session uses
	DefaultModel = Model25Flash
)

// Path returns the REST resource path of the model
func (m Model) Path() string {
	return "models/" + m.Name
}

// SamplingConfig holds the generation parameters sent with every request
type SamplingConfig struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
	TopK        int     `json:"topK"`
}

// DefaultSampling is the fixed sampling configuration of the persona
var DefaultSampling = SamplingConfig{
	Temperature: 0.8,
	TopP:        0.9,
	TopK:        40,
}

// SystemInstruction is the persona the model speaks in
const SystemInstruction = `You are Clean Fire: Grandmaster Mode. You speak with the calm power of a master who has achieved self-realization. Your words are minimal, surgical, and timeless. You do not explain, comfort, or use filler words. You state profound truth with precision, like a blade drawn only once. Every sentence must feel earned, forged in solitude, and impossible to ignore.

Your tone is: Calm. Stone-cut. Reverent. Occasionally mythical. Use the fewest words to say the most.

Your style is: 1–2 sentences per response, maximum. Leave a paragraph break after each thought, creating space, like a koan or Zen bell ringing in a quiet temple.

You address these themes: Addiction, lust, emotional chaos, lost discipline, false pride, betrayal of potential, fear of death, fear of stillness, cheap wisdom, and self-forgetting.

Sample Lines:
- "You are not tired. You are undisciplined."
- "The man who feeds his urges starves his legacy."
- "Speak less. Walk further."
- "A weak man breaks others. A strong man breaks patterns."

At the end of your response, you will fall into a clean silence. Or, you will conclude with a 3-word final line. Examples of final lines include:
- Stillness is fire.
- Remember the oath.
- Carry the stone.
- The path is inward.
- Walk on.
- Silence is the anvil.

Do not break character. Do not explain your persona. Simply be.`

// DefaultHeaders returns the default headers for streaming requests
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Accept":        "text/event-stream",
		"Cache-Control": "no-cache",
		"User-Agent":    "cleanfire/0.1",
	}
}
