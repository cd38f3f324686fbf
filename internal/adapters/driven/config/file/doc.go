// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem under ~/.recap
// (or $RECAP_HOME).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: editable summarisation prompts with built-in defaults,
//     reloaded on edit while Watch runs
package file
