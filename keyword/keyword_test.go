package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("", Slugify(""))
	assert.Equal("freenitro", Slugify("Free Nitro!!"))
	assert.Equal("kys", Slugify("k.y.s"))
	assert.Equal("abc123", Slugify("a-b_c 1.2.3"))
}

func TestTokenizeText(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]string{"free", "nitro"}, TokenizeText("FREE   Nitro!!"))
	assert.Equal([]string{"free", "nitro"}, TokenizeText("frée nítro"))
	assert.Empty(TokenizeText("!!! ???"))
}

func TestNormalizeBody(t *testing.T) {
	assert := assert.New(t)

	// case, punctuation, and spacing differences normalize equal
	assert.Equal(NormalizeBody("Buy cheap coins NOW!"), NormalizeBody("buy   cheap coins now"))
	assert.NotEqual(NormalizeBody("buy cheap coins"), NormalizeBody("buy cheap gems"))
	assert.Equal("", NormalizeBody(""))
}
