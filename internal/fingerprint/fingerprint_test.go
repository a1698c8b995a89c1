package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := Fingerprint("<html><body>Director: 011-2345678</body></html>")
		b := Fingerprint("<html><body>Director: 011-2345678</body></html>")
		assert.Equal(t, a, b)
		assert.Len(t, a, 16)
	})

	t.Run("SingleCharacterChangeDiffers", func(t *testing.T) {
		a := Fingerprint("<html>version 1</html>")
		b := Fingerprint("<html>version 2</html>")
		assert.NotEqual(t, a, b)
	})

	t.Run("EmptyContent", func(t *testing.T) {
		assert.Len(t, Fingerprint(""), 16)
	})
}

func TestChanged(t *testing.T) {
	h1 := Fingerprint("content one")
	h2 := Fingerprint("content two")

	assert.False(t, Changed(h1, h1))
	assert.True(t, Changed(h1, h2))
	// Absent previous hash always reads as changed.
	assert.True(t, Changed("", h1))
}
