// Package command defines the storekeep-cli commands using urfave/cli/v2:
//
//   - root.go: App, global flags, configuration and logger setup
//   - record.go: Read, write, delete and list persisted records
//   - run.go: Attach a demo counter store and watch it persist
//   - config.go: Show the merged configuration
//   - version.go: Build information
//
// Commands parse flags, act on the configured backing store and print
// through internal/cli/output.
package command
