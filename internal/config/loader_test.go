package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvUsesEnvironmentValue(t *testing.T) {
	t.Setenv("MILVUS_HOST", "milvus.internal")
	assert.Equal(t, "host: milvus.internal", expandEnv("host: ${MILVUS_HOST:localhost}"))
}

func TestExpandEnvFallsBackToDefault(t *testing.T) {
	assert.Equal(t, "host: localhost", expandEnv("host: ${UNSET_TEST_HOST:localhost}"))
	assert.Equal(t, "port: 19530", expandEnv("port: ${UNSET_TEST_PORT:19530}"))
}

func TestExpandEnvEmptyDefault(t *testing.T) {
	assert.Equal(t, "password: ", expandEnv("password: ${UNSET_TEST_PASSWORD:}"))
}

func TestExpandEnvKeepsUnresolvedPlaceholder(t *testing.T) {
	assert.Equal(t, "key: ${UNSET_NO_DEFAULT}", expandEnv("key: ${UNSET_NO_DEFAULT}"))
}

func TestExpandEnvMultiplePlaceholders(t *testing.T) {
	t.Setenv("APP_A", "one")
	out := expandEnv("a: ${APP_A:x}\nb: ${APP_B:two}")
	assert.Equal(t, "a: one\nb: two", out)
}
