package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")
)

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env`, `envDefault` and `envPrefix` tags.
//
// Every variable may be given with any leading part of the namespace, the most
// specific one winning: with namespace "APP_SVC", the field tagged "PORT" is read
// from APP_SVC_PORT, then APP_PORT, then PORT.
// A variable set to an empty value counts as unset and the field takes its default.
// Fields without a default are required.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	//nolint:exhaustruct
	opts := env.Options{
		Environment:     namespacedEnvironment(namespace, os.Environ()),
		RequiredIfNoDef: true,
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", mapParseError(err))
	}

	return nil
}

// namespacedEnvironment flattens the process environment so that every
// namespace level is visible under its unprefixed name. Levels are applied
// from least to most specific.
func namespacedEnvironment(namespace string, environ []string) map[string]string {
	vars := make(map[string]string, len(environ))

	for _, kv := range environ {
		if key, value, ok := strings.Cut(kv, "="); ok {
			vars[key] = value
		}
	}

	merged := make(map[string]string, len(vars))
	for key, value := range vars {
		merged[key] = value
	}

	if namespace == "" {
		return merged
	}

	nsParts := strings.Split(namespace, "_")

	for i := 1; i <= len(nsParts); i++ {
		prefix := strings.Join(nsParts[:i], "_") + "_"

		for key, value := range vars {
			if name, ok := strings.CutPrefix(key, prefix); ok && name != "" && value != "" {
				merged[name] = value
			}
		}
	}

	return merged
}

func mapParseError(err error) error {
	var aggErr env.AggregateError
	if !errors.As(err, &aggErr) {
		return err
	}

	for _, e := range aggErr.Errors {
		var notSet env.VarIsNotSetError
		if errors.As(e, &notSet) {
			return errors.Join(fmt.Errorf("%w: %s", ErrVarNotSet, notSet.Key), err)
		}
	}

	return err
}
