package cli

import "github.com/spf13/pflag"

// optionalInt returns a pointer to v when the named flag was set on the
// command line, and nil otherwise, so an explicit 0 stays distinct from unset.
func optionalInt(fs *pflag.FlagSet, name string, v int) *int {
	if !fs.Changed(name) {
		return nil
	}
	return &v
}
