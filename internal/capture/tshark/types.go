package tshark

// EkPacket represents the top-level structure of a tshark -T ek output line.
type EkPacket struct {
	Timestamp string   `json:"timestamp"`
	Layers    EkLayers `json:"layers"`
}

// EkLayers holds the fields requested with -e.
// With -T ek, tshark flattens the structure and replaces dots with underscores.
type EkLayers struct {
	FrameLen   []string `json:"frame_len,omitempty"`
	EthDst     []string `json:"eth_dst,omitempty"`
	IPSrc      []string `json:"ip_src,omitempty"`
	IPDst      []string `json:"ip_dst,omitempty"`
	IPv6Src    []string `json:"ipv6_src,omitempty"`
	IPv6Dst    []string `json:"ipv6_dst,omitempty"`
	TCPSrcPort []string `json:"tcp_srcport,omitempty"`
	TCPDstPort []string `json:"tcp_dstport,omitempty"`
	UDPSrcPort []string `json:"udp_srcport,omitempty"`
	UDPDstPort []string `json:"udp_dstport,omitempty"`

	DNSQuery      []string `json:"dns_qry_name,omitempty"`
	DNSResponse   []string `json:"dns_flags_response,omitempty"`
	HTTPMethod    []string `json:"http_request_method,omitempty"`
	HTTPStatus    []string `json:"http_response_code,omitempty"`
	HTTPHost      []string `json:"http_host,omitempty"`
	FrameProtocol []string `json:"frame_protocols,omitempty"`
}
