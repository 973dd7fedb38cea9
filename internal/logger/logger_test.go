package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel("warn") })

	SetLevel("debug")
	assert.Equal(t, logrus.DebugLevel, root().GetLevel())

	SetLevel("ERROR")
	assert.Equal(t, logrus.ErrorLevel, root().GetLevel())

	SetLevel("not-a-level")
	assert.Equal(t, logrus.WarnLevel, root().GetLevel())
}

func TestComponentLoggers(t *testing.T) {
	tests := []struct {
		name string
		fn   func() Logger
		want string
	}{
		{"store", Store, "store"},
		{"query", Query, "query"},
		{"assembler", Assembler, "assembler"},
		{"tx", Tx, "tx"},
		{"db", DB, "db"},
		{"cli", CLI, "cli"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := tt.fn()
			assert.Equal(t, tt.want, entry.Data["component"])
		})
	}
}
