package simcollab

import (
	"sync"

	"github.com/flowsim/workerpool/workerpool"
)

// DNS is a thread-safe, in-memory name/IP-to-Address resolver.
type DNS struct {
	mu     sync.RWMutex
	byIP   map[uint32]Address
	byName map[string]Address
}

// NewDNS creates an empty resolver.
func NewDNS() *DNS {
	return &DNS{
		byIP:   make(map[uint32]Address),
		byName: make(map[string]Address),
	}
}

// Register associates ip and name (if non-empty) with addr.
func (d *DNS) Register(ip uint32, name string, addr Address) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byIP[ip] = addr
	if name != "" {
		d.byName[name] = addr
	}
}

// ResolveIPToAddress implements workerpool.DNS.
func (d *DNS) ResolveIPToAddress(ip uint32) (workerpool.Address, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	addr, ok := d.byIP[ip]
	return addr, ok
}

// ResolveNameToAddress implements workerpool.DNS.
func (d *DNS) ResolveNameToAddress(name string) (workerpool.Address, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	addr, ok := d.byName[name]
	return addr, ok
}
