package capture

import "strconv"

var commonPorts = map[int]string{
	20:   "FTP-DATA",
	21:   "FTP",
	22:   "SSH",
	23:   "Telnet",
	25:   "SMTP",
	53:   "DNS",
	67:   "DHCP",
	68:   "DHCP",
	80:   "HTTP",
	110:  "POP3",
	123:  "NTP",
	143:  "IMAP",
	443:  "HTTPS",
	853:  "DoT",
	3306: "MySQL",
	5353: "mDNS",
	5432: "PostgreSQL",
	6379: "Redis",
	8080: "HTTP-Alt",
}

// ServiceName returns the common name for a port, or the port number as a string.
func ServiceName(port int) string {
	if name, ok := commonPorts[port]; ok {
		return name
	}
	return strconv.Itoa(port)
}

// wellKnownService returns the service name of whichever port is well known,
// preferring the destination.
func wellKnownService(srcPort, dstPort int) (string, bool) {
	if name, ok := commonPorts[dstPort]; ok {
		return name, true
	}
	if name, ok := commonPorts[srcPort]; ok {
		return name, true
	}
	return "", false
}
