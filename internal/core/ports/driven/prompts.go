package driven

// PromptStore resolves prompt templates by name. An unknown name is an
// error; a known prompt whose file is missing or broken falls back to the
// built-in text.
type PromptStore interface {
	Load(name string) (string, error)
	// Reload drops cached templates so edits are picked up.
	Reload()
}

const (
	// PromptAnswerSystem has no placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser takes two %s: the question, then the context block.
	PromptAnswerUser = "answer_user"
)
