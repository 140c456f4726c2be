// Package thought defines the fields of a CBT thought record and composes
// the answered fields into the context text that grounds AI prompts.
package thought

// Kind is how a field is answered.
type Kind string

const (
	FreeText    Kind = "free-text"
	MultiSelect Kind = "multi-select"
)

// Field keys in wizard order.
const (
	Situation       = "situation"
	ANTs            = "ants"
	Behaviors       = "behaviors"
	Distortions     = "distortions"
	EvidenceAgainst = "evidenceAgainst"
	FriendsAdvice   = "friendsAdvice"
	BalancedThought = "balancedThought"
)

// Field is a static field definition.
type Field struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Kind   Kind   `json:"kind"`
	Prompt string `json:"prompt"`
}

var fields = []Field{
	{Key: Situation, Label: "Situation", Kind: FreeText, Prompt: "Describe the situation that triggered your thoughts."},
	{Key: ANTs, Label: "Automatic Negative Thoughts (ANTs)", Kind: FreeText, Prompt: "What immediate negative thoughts did you have?"},
	{Key: Behaviors, Label: "Behaviors", Kind: FreeText, Prompt: "How did you react or what did you feel like doing?"},
	{Key: Distortions, Label: "Cognitive Distortions", Kind: MultiSelect, Prompt: "Which cognitive distortions might be present?"},
	{Key: EvidenceAgainst, Label: "Evidence Against", Kind: FreeText, Prompt: "What factual evidence contradicts your negative thought?"},
	{Key: FriendsAdvice, Label: "Friend's Advice", Kind: FreeText, Prompt: "What would you tell a friend in this situation?"},
	{Key: BalancedThought, Label: "Balanced Thought", Kind: FreeText, Prompt: "Create a new, more realistic thought."},
}

// N is the number of fields. A step cursor equal to N is the review state.
const N = 7

var distortionVocabulary = []string{
	"All-or-Nothing",
	"Catastrophizing",
	"Overgeneralization",
	"Filtering",
	"Mind Reading",
	"Fortune Telling",
	"Personalization",
	"Emotional Reasoning",
	"Should Statements",
	"Labeling",
}

var emotionVocabulary = []string{
	"Anxiety", "Fear", "Sadness", "Anger", "Guilt", "Shame",
	"Hurt", "Frustration", "Loneliness", "Hopelessness", "Other",
}

// Fields returns the field definitions in wizard order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldAt returns the field for a step in [0, N). ok is false otherwise.
func FieldAt(step int) (Field, bool) {
	if step < 0 || step >= len(fields) {
		return Field{}, false
	}
	return fields[step], true
}

// Index returns the step index of key, or -1 if key is not a field.
func Index(key string) int {
	for i, f := range fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// Lookup returns the field definition for key.
func Lookup(key string) (Field, bool) {
	i := Index(key)
	if i < 0 {
		return Field{}, false
	}
	return fields[i], true
}

// DistortionVocabulary returns the fixed list of cognitive distortions
// offered on the distortions step.
func DistortionVocabulary() []string {
	return append([]string(nil), distortionVocabulary...)
}

// IsKnownDistortion reports whether name is in the fixed vocabulary.
func IsKnownDistortion(name string) bool {
	for _, d := range distortionVocabulary {
		if d == name {
			return true
		}
	}
	return false
}

// EmotionVocabulary returns the emotion labels shown alongside the wizard.
func EmotionVocabulary() []string {
	return append([]string(nil), emotionVocabulary...)
}
