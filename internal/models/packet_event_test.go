package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLayerSet_Has(t *testing.T) {
	s := LayerTCP | LayerHTTP
	assert.True(t, s.Has(LayerTCP))
	assert.True(t, s.Has(LayerTCP|LayerHTTP))
	assert.False(t, s.Has(LayerUDP))
	assert.False(t, s.Has(LayerTCP|LayerDNS))
	assert.False(t, s.Has(0))
}

func TestLayerSet_String(t *testing.T) {
	assert.Equal(t, "-", LayerSet(0).String())
	assert.Equal(t, "UDP+DNS", (LayerDNS | LayerUDP).String())
	assert.Equal(t, "TCP+UDP+HTTP+DNS", (LayerTCP | LayerUDP | LayerHTTP | LayerDNS).String())
}
