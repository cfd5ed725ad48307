package monitor

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"regexp"
	"syscall"

	"github.com/watchrig/rig/pkg/rigerr"
)

// tcp flag bits, byte 13 of a TCP header.
const (
	tcpFIN = 0x01
	tcpSYN = 0x02
	tcpRST = 0x04
	tcpPSH = 0x08
	tcpACK = 0x10
	tcpURG = 0x20
	tcpECN = 0x40
	tcpCWR = 0x80
)

var tcpFlagBits = map[string]byte{
	"FIN": tcpFIN, "SYN": tcpSYN, "RST": tcpRST, "PSH": tcpPSH,
	"ACK": tcpACK, "URG": tcpURG, "ECN": tcpECN, "CWR": tcpCWR,
}

// Packet watches raw Ethernet frames for ones matching a filter set,
// triggering when the filters match (all of them by default, any one of
// them with TriggerAny). Parses Ethernet/IPv4/TCP/UDP/ICMP headers directly
// over an AF_PACKET socket.
type Packet struct {
	iface      string
	srcMAC     net.HardwareAddr
	dstMAC     net.HardwareAddr
	srcIP      net.IP
	dstIP      net.IP
	srcPort    uint16
	dstPort    uint16
	tcpFlags   byte
	hasFlags   bool
	icmpType   int
	hasICMP    bool
	payload    *regexp.Regexp
	triggerAny bool

	filterCount int
}

func NewPacket() Monitor { return &Packet{} }

func (p *Packet) Name() string { return "packet" }

func (p *Packet) Configure(opts map[string]any) error {
	iface, ok := opts["interface"].(string)
	if !ok || iface == "" {
		return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("interface is required"))
	}
	if _, err := net.InterfaceByName(iface); err != nil {
		return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("interface %s: %w", iface, err))
	}
	p.iface = iface

	if v, ok := opts["srcmac"].(string); ok && v != "" {
		mac, err := net.ParseMAC(v)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("srcmac: %w", err))
		}
		p.srcMAC = mac
		p.filterCount++
	}
	if v, ok := opts["dstmac"].(string); ok && v != "" {
		mac, err := net.ParseMAC(v)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("dstmac: %w", err))
		}
		p.dstMAC = mac
		p.filterCount++
	}
	if v, ok := opts["srcip"].(string); ok && v != "" {
		ip := net.ParseIP(v)
		if ip == nil {
			return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("srcip: invalid address %q", v))
		}
		p.srcIP = ip
		p.filterCount++
	}
	if v, ok := opts["dstip"].(string); ok && v != "" {
		ip := net.ParseIP(v)
		if ip == nil {
			return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("dstip: invalid address %q", v))
		}
		p.dstIP = ip
		p.filterCount++
	}
	if v, ok := intOpt(opts, "srcport"); ok {
		p.srcPort = uint16(v)
		p.filterCount++
	}
	if v, ok := intOpt(opts, "dstport"); ok {
		p.dstPort = uint16(v)
		p.filterCount++
	}
	if raw, ok := opts["tcpflags"].([]any); ok && len(raw) > 0 {
		for _, f := range raw {
			name, _ := f.(string)
			bit, known := tcpFlagBits[name]
			if !known {
				return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("tcpflags: unknown flag %q", name))
			}
			p.tcpFlags |= bit
		}
		p.hasFlags = true
		p.filterCount++
	}
	if v, ok := intOpt(opts, "icmptype"); ok {
		p.icmpType = v
		p.hasICMP = true
		p.filterCount++
	}
	if v, ok := opts["payload"].(string); ok && v != "" {
		re, err := regexp.Compile(v)
		if err != nil {
			return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("payload: %w", err))
		}
		p.payload = re
		p.filterCount++
	}
	if v, ok := opts["trigger_any"].(bool); ok {
		p.triggerAny = v
	}

	if p.filterCount == 0 {
		return rigerr.New(rigerr.Configuration, "packet.Configure", fmt.Errorf("at least one filter must be set"))
	}
	return nil
}

func intOpt(opts map[string]any, key string) (int, bool) {
	switch v := opts[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// ethPAll is htons(ETH_P_ALL): AF_PACKET takes the protocol in network byte
// order, both in socket(2) and in the bind address.
var ethPAll = binary.NativeEndian.Uint16([]byte{0x00, 0x03})

func (p *Packet) Start(ctx context.Context) (bool, error) {
	fd, err := syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW, int(ethPAll))
	if err != nil {
		return false, rigerr.New(rigerr.Subprocess, "packet.Start", fmt.Errorf("opening raw socket (requires CAP_NET_RAW): %w", err))
	}
	defer syscall.Close(fd)

	ifi, err := net.InterfaceByName(p.iface)
	if err != nil {
		return false, fmt.Errorf("packet: resolving interface %s: %w", p.iface, err)
	}
	sll := syscall.SockaddrLinklayer{Protocol: ethPAll, Ifindex: ifi.Index}
	if err := syscall.Bind(fd, &sll); err != nil {
		return false, fmt.Errorf("packet: binding to %s: %w", p.iface, err)
	}

	buf := make([]byte, 65536)

	for {
		select {
		case <-ctx.Done():
			return false, rigerr.ErrCancelled
		default:
		}

		n, _, err := syscall.Recvfrom(fd, buf, 0)
		if err != nil {
			continue
		}
		if p.matches(buf[:n]) {
			return true, nil
		}
	}
}

// matches reports whether a frame satisfies the configured filters: all of
// them by default, or any one of them when TriggerAny is set.
func (p *Packet) matches(frame []byte) bool {
	if len(frame) < 14 {
		return false
	}
	results := make([]bool, 0, p.filterCount)

	srcMAC := net.HardwareAddr(frame[6:12])
	dstMAC := net.HardwareAddr(frame[0:6])
	if p.srcMAC != nil {
		results = append(results, srcMAC.String() == p.srcMAC.String())
	}
	if p.dstMAC != nil {
		results = append(results, dstMAC.String() == p.dstMAC.String())
	}

	ethType := binary.BigEndian.Uint16(frame[12:14])
	if ethType != 0x0800 { // IPv4 only
		return false
	}
	ipHeader := frame[14:]
	if len(ipHeader) < 20 {
		return false
	}
	ihl := int(ipHeader[0]&0x0f) * 4
	proto := ipHeader[9]
	srcIP := net.IP(ipHeader[12:16])
	dstIP := net.IP(ipHeader[16:20])

	if p.srcIP != nil {
		results = append(results, srcIP.Equal(p.srcIP))
	}
	if p.dstIP != nil {
		results = append(results, dstIP.Equal(p.dstIP))
	}

	var l4, payload []byte
	switch proto {
	case 6: // TCP
		if len(ipHeader) < ihl+20 {
			return false
		}
		l4 = ipHeader[ihl:]
		dataOffset := int(l4[12]>>4) * 4
		if len(l4) >= dataOffset {
			payload = l4[dataOffset:]
		}
		if p.srcPort != 0 {
			results = append(results, binary.BigEndian.Uint16(l4[0:2]) == p.srcPort)
		}
		if p.dstPort != 0 {
			results = append(results, binary.BigEndian.Uint16(l4[2:4]) == p.dstPort)
		}
		if p.hasFlags {
			results = append(results, l4[13]&p.tcpFlags != 0)
		}
	case 17: // UDP
		if len(ipHeader) < ihl+8 {
			return false
		}
		l4 = ipHeader[ihl:]
		if len(l4) >= 8 {
			payload = l4[8:]
		}
		if p.srcPort != 0 {
			results = append(results, binary.BigEndian.Uint16(l4[0:2]) == p.srcPort)
		}
		if p.dstPort != 0 {
			results = append(results, binary.BigEndian.Uint16(l4[2:4]) == p.dstPort)
		}
	case 1: // ICMP
		if len(ipHeader) < ihl+8 {
			return false
		}
		l4 = ipHeader[ihl:]
		payload = l4[8:]
		if p.hasICMP {
			results = append(results, int(l4[0]) == p.icmpType)
		}
	default:
		if p.srcPort != 0 || p.dstPort != 0 || p.hasFlags || p.hasICMP {
			return false // filter needs a transport header this protocol doesn't have
		}
	}

	if p.payload != nil {
		results = append(results, payload != nil && p.payload.Match(payload))
	}

	if len(results) == 0 {
		return false
	}
	if p.triggerAny {
		for _, r := range results {
			if r {
				return true
			}
		}
		return false
	}
	for _, r := range results {
		if !r {
			return false
		}
	}
	return true
}

func (p *Packet) Describe() string {
	mode := "all filters matching"
	if p.triggerAny {
		mode = "any filter matching"
	}
	return fmt.Sprintf("watches %s for a frame satisfying %s", p.iface, mode)
}
