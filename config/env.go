package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func GetEnvDef(name, def string) (result string) {
	result = os.Getenv(name)
	if result == "" {
		result = def
	}
	return
}

func GetBoolEnvDef(name string, def bool) (result bool) {
	value := strings.ToLower(os.Getenv(name))
	if value == "" {
		return def
	}
	result, _ = strconv.ParseBool(value)
	return
}

// GetIntEnvDef returns def if the variable is unset and an error if it is
// not an integer.
func GetIntEnvDef(name string, def int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return def, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return def, fmt.Errorf("invalid value for %s - expected an integer but got %q", name, value)
	}
	return result, nil
}
