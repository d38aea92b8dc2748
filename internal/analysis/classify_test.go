package analysis

import (
	"testing"

	"netradar/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name   string
		layers models.LayerSet
		want   Category
	}{
		{"none", 0, CategoryOther},
		{"tcp", models.LayerTCP, CategoryTCP},
		{"udp", models.LayerUDP, CategoryUDP},
		{"http only", models.LayerHTTP, CategoryHTTP},
		{"dns only", models.LayerDNS, CategoryDNS},
		{"http over tcp", models.LayerTCP | models.LayerHTTP, CategoryTCP},
		{"dns over udp", models.LayerUDP | models.LayerDNS, CategoryUDP},
		{"dns over tcp", models.LayerTCP | models.LayerDNS, CategoryTCP},
		{"http and dns", models.LayerHTTP | models.LayerDNS, CategoryHTTP},
		{"everything", models.LayerTCP | models.LayerUDP | models.LayerHTTP | models.LayerDNS, CategoryTCP},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := models.PacketEvent{Layers: tt.layers}
			assert.Equal(t, tt.want, Classify(ev))
		})
	}
}

func TestClassify_TotalAndDeterministic(t *testing.T) {
	for l := 0; l < 256; l++ {
		ev := models.PacketEvent{Layers: models.LayerSet(l), Summary: "x"}
		first := Classify(ev)
		assert.Contains(t, Categories[:], first)
		assert.Equal(t, first, Classify(ev))
	}
}

func TestCategory_String(t *testing.T) {
	var names []string
	for _, c := range Categories {
		names = append(names, c.String())
	}
	assert.Equal(t, []string{"TCP", "UDP", "HTTP", "DNS", "OTHER"}, names)
	assert.Equal(t, "OTHER", Category(42).String())
}
