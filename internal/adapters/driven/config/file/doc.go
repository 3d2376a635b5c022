// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration with live reload via fsnotify
//   - PromptStore: user-editable LLM prompt templates
package file
