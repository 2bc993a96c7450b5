// Package console is the line-based configuration shell.
//
// It reads commands from any io.Reader (stdin on a device, a pipe in
// tests) and writes replies to an io.Writer. Configuration commands
// overwrite whole fields and persist immediately; pin and board changes
// take effect after a restart.
//
//	> wifi HomeNet s3cret
//	wifi saved (restart to apply)
//	> relay1 on
//	relay1 on
package console
