package infrastructure

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRabbitMQ_ShutdownWithoutConsumer(t *testing.T) {
	r := &RabbitMQ{log: quietLogger()}
	assert.NoError(t, r.Shutdown(context.Background()))
}
