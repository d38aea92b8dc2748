package analysis

import "netradar/internal/models"

// Category is the protocol bucket a packet is counted under.
type Category int

const (
	CategoryTCP Category = iota
	CategoryUDP
	CategoryHTTP
	CategoryDNS
	CategoryOther

	numCategories
)

// Categories lists every category in display order.
var Categories = [numCategories]Category{
	CategoryTCP, CategoryUDP, CategoryHTTP, CategoryDNS, CategoryOther,
}

func (c Category) String() string {
	switch c {
	case CategoryTCP:
		return "TCP"
	case CategoryUDP:
		return "UDP"
	case CategoryHTTP:
		return "HTTP"
	case CategoryDNS:
		return "DNS"
	default:
		return "OTHER"
	}
}

// precedence is the fixed order in which layers are checked.
var precedence = [...]struct {
	layer    models.LayerSet
	category Category
}{
	{models.LayerTCP, CategoryTCP},
	{models.LayerUDP, CategoryUDP},
	{models.LayerHTTP, CategoryHTTP},
	{models.LayerDNS, CategoryDNS},
}

// Classify returns the first category, in TCP, UDP, HTTP, DNS order, whose
// layer is present on the event, or CategoryOther when none is.
//
// Transport wins over application: HTTP carried on TCP counts as TCP and DNS
// carried on UDP counts as UDP. HTTP and DNS are only reported for events
// whose transport layer was not detected.
func Classify(ev models.PacketEvent) Category {
	for _, p := range precedence {
		if ev.Layers.Has(p.layer) {
			return p.category
		}
	}
	return CategoryOther
}
