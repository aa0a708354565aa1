// Package geoip annotates traffic samples with the source country. The
// MaxMind database is optional; without one every lookup returns empty.
package geoip

import (
	"fmt"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

// Resolver maps IP addresses to ISO country codes.
type Resolver struct {
	mu sync.Mutex
	db *geoip2.Reader
}

// Open loads a GeoLite2 country database. An empty path yields a disabled
// resolver rather than an error.
func Open(dbPath string) (*Resolver, error) {
	if dbPath == "" {
		return &Resolver{}, nil
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Resolver{db: db}, nil
}

// Country returns the ISO country code for an IP, or "" when the resolver is
// disabled, the address is unparseable, or the database has no answer.
func (r *Resolver) Country(ipStr string) string {
	if r.db == nil {
		return ""
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	record, err := r.db.Country(ip)
	if err != nil {
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the underlying database.
func (r *Resolver) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
