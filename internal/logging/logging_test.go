package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewWithOutput(t *testing.T) {
	t.Run("Valid level", func(t *testing.T) {
		var buffer bytes.Buffer

		logger := NewWithOutput("DEBUG", &buffer)
		Component(logger, "search", "run-1").Debug("solved")

		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
		assert.Contains(t, buffer.String(), "msg=solved")
		assert.Contains(t, buffer.String(), "component=search")
		assert.Contains(t, buffer.String(), "run_id=run-1")
	})

	t.Run("Invalid level", func(t *testing.T) {
		var buffer bytes.Buffer

		logger := NewWithOutput("loud", &buffer)

		assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
		assert.Contains(t, buffer.String(), "invalid_level=loud")
	})
}
