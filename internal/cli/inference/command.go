package inference

import (
	"path/filepath"
	"strings"
)

// InferCommand returns the subcommand implied by args, or "" when args
// already name one. A leading scenario file implies "run".
func InferCommand(args []string) (string, []string) {
	if len(args) == 0 {
		return "", nil
	}

	first := args[0]
	if strings.HasPrefix(first, "-") {
		return "", args
	}

	switch strings.ToLower(filepath.Ext(first)) {
	case ".yaml", ".yml":
		return "run", args
	}

	return "", args
}
