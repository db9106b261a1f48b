package config

import "os"

func IsDebug() bool {
	return os.Getenv("MAREEN_DEBUG") == "1"
}
