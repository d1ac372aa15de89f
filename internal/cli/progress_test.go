package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	t.Run("ignores empty jobs", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgress(&buf, "Migrando")
		p.Update(0, 0)
		assert.False(t, p.Done())
		assert.Empty(t, buf.String())
	})

	t.Run("finishes at total", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgress(&buf, "Migrando")
		for i := 1; i <= 3; i++ {
			p.Update(i, 3)
		}
		assert.True(t, p.Done())
		assert.Contains(t, buf.String(), "3/3")
	})
}
