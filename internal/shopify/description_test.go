package shopify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDescription(t *testing.T) {
	raw := `<p>Cappello in <strong>lana</strong> &amp; cashmere</p><ul><li>Taglia&nbsp;M</li><li>Made in Italy</li></ul>`

	assert.Equal(t, "Cappello in lana & cashmere\nTaglia M\nMade in Italy", CleanDescription(raw))
	assert.Equal(t, "", CleanDescription("   "))
}
