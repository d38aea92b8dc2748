package models

import (
	"strings"
	"time"
)

// LayerSet is the set of protocol layers detected on a packet at capture time.
type LayerSet uint8

const (
	LayerTCP LayerSet = 1 << iota
	LayerUDP
	LayerHTTP
	LayerDNS
)

// Has reports whether every layer in l is present.
func (s LayerSet) Has(l LayerSet) bool {
	return l != 0 && s&l == l
}

func (s LayerSet) String() string {
	if s == 0 {
		return "-"
	}
	var names []string
	if s.Has(LayerTCP) {
		names = append(names, "TCP")
	}
	if s.Has(LayerUDP) {
		names = append(names, "UDP")
	}
	if s.Has(LayerHTTP) {
		names = append(names, "HTTP")
	}
	if s.Has(LayerDNS) {
		names = append(names, "DNS")
	}
	return strings.Join(names, "+")
}

// PacketEvent holds the extracted information from a captured packet.
// It is created by a capture backend and never modified afterwards.
type PacketEvent struct {
	Timestamp time.Time
	SrcAddr   string
	DstAddr   string
	SrcPort   int
	DstPort   int
	Length    int
	Layers    LayerSet
	Summary   string
	// Broadcast is set when the frame went to the link-layer broadcast
	// address or to 255.255.255.255.
	Broadcast bool
}
