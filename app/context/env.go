package context

import "os"

// Environment is the interface to the process environment.
type Environment interface {
	Get(string) string
	Set(string, string) error
}

// ExpandEnv replaces ${var} or $var in s with values from env. It's used for
// connection strings, so that credentials can stay out of the config file.
func ExpandEnv(env Environment, s string) string {
	if env == nil {
		return s
	}
	return os.Expand(s, env.Get)
}
