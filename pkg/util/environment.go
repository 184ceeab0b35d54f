package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvironmentPrefix is prepended to every setting read from the environment
const EnvironmentPrefix = "RAILCONNECT_"

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// Env reads a RAILCONNECT_ prefixed setting from an environment map
type Env map[string]string

func (e Env) String(key string, fallback string) string {
	if value := e[EnvironmentPrefix+key]; value != "" {
		return value
	}
	return fallback
}

func (e Env) Int(key string, fallback int) (int, error) {
	value := e[EnvironmentPrefix+key]
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func (e Env) Float(key string, fallback float64) (float64, error) {
	value := e[EnvironmentPrefix+key]
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func (e Env) Duration(key string, fallback time.Duration) (time.Duration, error) {
	value := e[EnvironmentPrefix+key]
	if value == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

// Bool accepts YES/NO as used by the other settings as well as strconv forms
func (e Env) Bool(key string, fallback bool) (bool, error) {
	value := e[EnvironmentPrefix+key]
	switch strings.ToUpper(value) {
	case "":
		return fallback, nil
	case "YES":
		return true, nil
	case "NO":
		return false, nil
	default:
		return strconv.ParseBool(value)
	}
}
