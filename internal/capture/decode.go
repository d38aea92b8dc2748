package capture

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"netradar/internal/models"
)

var httpPrefixes = [][]byte{
	[]byte("GET "), []byte("POST "), []byte("PUT "), []byte("DELETE "),
	[]byte("HEAD "), []byte("OPTIONS "), []byte("PATCH "), []byte("CONNECT "),
	[]byte("HTTP/1."),
}

// DecodeData decodes a raw frame read from a handle of the given link type.
func DecodeData(data []byte, ci gopacket.CaptureInfo, decoder gopacket.Decoder) models.PacketEvent {
	pkt := gopacket.NewPacket(data, decoder, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	md := pkt.Metadata()
	md.CaptureInfo = ci
	return Decode(pkt)
}

// Decode extracts addresses, layer presence and a one-line summary from pkt.
// Decoding failures are not errors: whatever layers decoded are reported and
// the summary is marked as malformed.
func Decode(pkt gopacket.Packet) models.PacketEvent {
	ev := models.PacketEvent{}
	if md := pkt.Metadata(); md != nil {
		ev.Timestamp = md.Timestamp
		ev.Length = md.Length
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	if ev.Length == 0 {
		ev.Length = len(pkt.Data())
	}

	ev.SrcAddr, ev.DstAddr = addresses(pkt)
	ev.Broadcast = isBroadcast(pkt)

	var payload []byte
	var flags string
	if l := pkt.Layer(layers.LayerTypeTCP); l != nil {
		tcp := l.(*layers.TCP)
		ev.Layers |= models.LayerTCP
		ev.SrcPort, ev.DstPort = int(tcp.SrcPort), int(tcp.DstPort)
		payload = tcp.Payload
		flags = tcpFlags(tcp)
	} else if l := pkt.Layer(layers.LayerTypeUDP); l != nil {
		udp := l.(*layers.UDP)
		ev.Layers |= models.LayerUDP
		ev.SrcPort, ev.DstPort = int(udp.SrcPort), int(udp.DstPort)
		payload = udp.Payload
	}

	var dns *layers.DNS
	if l := pkt.Layer(layers.LayerTypeDNS); l != nil {
		dns = l.(*layers.DNS)
		ev.Layers |= models.LayerDNS
	}
	if ev.Layers.Has(models.LayerTCP) && isHTTP(payload) {
		ev.Layers |= models.LayerHTTP
	}

	ev.Summary = summarize(pkt, ev, dns, payload, flags)
	if pkt.ErrorLayer() != nil {
		ev.Summary += " (malformed)"
	}
	return ev
}

func addresses(pkt gopacket.Packet) (string, string) {
	if nl := pkt.NetworkLayer(); nl != nil {
		src, dst := nl.NetworkFlow().Endpoints()
		return src.String(), dst.String()
	}
	if l := pkt.Layer(layers.LayerTypeARP); l != nil {
		arp := l.(*layers.ARP)
		return ipString(arp.SourceProtAddress), ipString(arp.DstProtAddress)
	}
	if ll := pkt.LinkLayer(); ll != nil {
		src, dst := ll.LinkFlow().Endpoints()
		return src.String(), dst.String()
	}
	return "", ""
}

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// isBroadcast reports a frame sent to everyone on the segment. Subnet-directed
// broadcasts are delivered to the broadcast MAC, so they are covered too.
func isBroadcast(pkt gopacket.Packet) bool {
	if l := pkt.Layer(layers.LayerTypeEthernet); l != nil {
		if bytes.Equal(l.(*layers.Ethernet).DstMAC, broadcastMAC) {
			return true
		}
	}
	if l := pkt.Layer(layers.LayerTypeIPv4); l != nil {
		return l.(*layers.IPv4).DstIP.Equal(net.IPv4bcast)
	}
	return false
}

func ipString(b []byte) string {
	if len(b) != 4 {
		return ""
	}
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}

func isHTTP(payload []byte) bool {
	for _, p := range httpPrefixes {
		if bytes.HasPrefix(payload, p) {
			return true
		}
	}
	return false
}

func tcpFlags(tcp *layers.TCP) string {
	var f []string
	if tcp.SYN {
		f = append(f, "SYN")
	}
	if tcp.ACK {
		f = append(f, "ACK")
	}
	if tcp.FIN {
		f = append(f, "FIN")
	}
	if tcp.RST {
		f = append(f, "RST")
	}
	if tcp.PSH {
		f = append(f, "PSH")
	}
	if len(f) == 0 {
		return ""
	}
	return "[" + strings.Join(f, ",") + "]"
}

func summarize(pkt gopacket.Packet, ev models.PacketEvent, dns *layers.DNS, payload []byte, flags string) string {
	switch {
	case dns != nil:
		return dnsSummary(dns)
	case ev.Layers.Has(models.LayerHTTP):
		return httpSummary(payload)
	case ev.Layers.Has(models.LayerTCP):
		s := portSummary(ev)
		if flags != "" {
			s += " " + flags
		}
		return fmt.Sprintf("%s len=%d", s, len(payload))
	case ev.Layers.Has(models.LayerUDP):
		return fmt.Sprintf("%s len=%d", portSummary(ev), len(payload))
	}

	if l := pkt.Layer(layers.LayerTypeICMPv4); l != nil {
		return "ICMPv4 " + l.(*layers.ICMPv4).TypeCode.String()
	}
	if l := pkt.Layer(layers.LayerTypeICMPv6); l != nil {
		return "ICMPv6 " + l.(*layers.ICMPv6).TypeCode.String()
	}
	if l := pkt.Layer(layers.LayerTypeARP); l != nil {
		arp := l.(*layers.ARP)
		if arp.Operation == layers.ARPReply {
			return "ARP reply " + ipString(arp.SourceProtAddress)
		}
		return "ARP who-has " + ipString(arp.DstProtAddress)
	}
	if ls := pkt.Layers(); len(ls) > 0 {
		return ls[len(ls)-1].LayerType().String()
	}
	return "unknown"
}

func portSummary(ev models.PacketEvent) string {
	s := fmt.Sprintf("%d → %d", ev.SrcPort, ev.DstPort)
	if name, ok := wellKnownService(ev.SrcPort, ev.DstPort); ok {
		s += " (" + name + ")"
	}
	return s
}

func dnsSummary(dns *layers.DNS) string {
	name := ""
	qtype := ""
	if len(dns.Questions) > 0 {
		name = string(dns.Questions[0].Name)
		qtype = dns.Questions[0].Type.String()
	}
	if dns.QR {
		return fmt.Sprintf("DNS response %s %s (%d answers)", qtype, name, len(dns.Answers))
	}
	return fmt.Sprintf("DNS query %s %s", qtype, name)
}

func httpSummary(payload []byte) string {
	line := payload
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if bytes.HasPrefix(line, []byte("HTTP/")) {
		fields := strings.Fields(string(line))
		if len(fields) >= 2 {
			return "HTTP response " + fields[1]
		}
		return "HTTP response"
	}
	method := string(line)
	if i := strings.IndexByte(method, ' '); i >= 0 {
		method = method[:i]
	}
	return "HTTP " + method + " request"
}
