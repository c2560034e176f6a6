// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (STOREKEEP_ prefix)
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
//
// Environment variables separate nesting levels with a double underscore,
// so STOREKEEP_STORAGE__DATA_DIR sets storage.data_dir.
//
// Watcher reports writes to a configuration file so long-running commands
// can re-apply settings such as the log level.
package confloader
