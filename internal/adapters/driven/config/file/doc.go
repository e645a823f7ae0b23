// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at ~/.ragvault/config.toml
//   - PromptStore: editable answer prompts under ~/.ragvault/prompts
package file
