// Package geo annotates addresses with their country using a MaxMind
// database (GeoLite2-Country or GeoLite2-City).
package geo

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/maxminddb-golang"
)

// cacheLimit bounds the lookup cache; it is reset when full.
const cacheLimit = 4096

type record struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Reader looks up countries. A nil *Reader is valid and knows nothing.
type Reader struct {
	db *maxminddb.Reader

	mu    sync.Mutex
	cache map[string]string
}

// Open opens the database at path.
func Open(path string) (*Reader, error) {
	db, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &Reader{db: db, cache: make(map[string]string)}, nil
}

// Country returns the ISO country code for addr, or "" when unknown,
// private, or not an IP address.
func (r *Reader) Country(addr string) string {
	if r == nil || r.db == nil {
		return ""
	}
	ip := net.ParseIP(addr)
	if !routable(ip) {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cache[addr]; ok {
		return c
	}

	var rec record
	if err := r.db.Lookup(ip, &rec); err != nil {
		return ""
	}
	r.remember(addr, rec.Country.ISOCode)
	return rec.Country.ISOCode
}

// remember caches code for addr. Callers hold r.mu.
func (r *Reader) remember(addr, code string) {
	if len(r.cache) >= cacheLimit {
		clear(r.cache)
	}
	r.cache[addr] = code
}

// Close releases the database.
func (r *Reader) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func routable(ip net.IP) bool {
	if ip == nil || ip.IsUnspecified() {
		return false
	}
	return !ip.IsPrivate() && !ip.IsLoopback() && !ip.IsLinkLocalUnicast() && !ip.IsMulticast()
}
