package jobs

import (
	"bytes"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var _ asynq.Logger = Logger{}

func TestLoggerWritesLevels(t *testing.T) {
	var buf bytes.Buffer
	l := Logger{L: zerolog.New(&buf)}

	l.Info("server ", "started")
	l.Warn("slow")
	l.Fatal("boom")

	out := buf.String()
	require.Contains(t, out, `"level":"info","message":"server started"`)
	require.Contains(t, out, `"level":"warn"`)
	require.Contains(t, out, `"level":"fatal","message":"boom"`)
}
