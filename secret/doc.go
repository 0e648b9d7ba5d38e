// Package secret resolves credentials referenced from configuration.
//
// A value is either literal text, with ${VAR} expanded strictly (see
// ExpandEnvStrict), or a whole-value reference of the form
//
//	secretref:<provider>:<ref>
//
// Two providers are built in: "env" reads an environment variable and
// "file" reads a file such as a mounted container secret, trimming the
// trailing newline.
package secret
