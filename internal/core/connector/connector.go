// Package connector implements the codec for pipeline connector addresses.
// A connector address is the single source of truth tying a pipeline service
// to a container identity: the host segment of the URL must equal the key
// under which the container is declared in the compose documents.
// This is part of the Functional Core - all functions are pure with no I/O.
package connector

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is the decomposed form of a connector URL
// `protocol://host:port/endpoint`.
type Address struct {
	Protocol string
	Host     string
	Port     string
	Endpoint string
}

// Parse splits a connector URL into host, port and endpoint.
// The endpoint is "" both when the URL ends right after the port and when it
// ends with a bare "/"; both forms rebuild to equivalent URLs.
//
// Example:
//
//	Parse("http://my-service:8080/respond") // ("my-service", "8080", "respond", nil)
func Parse(url string) (host, port, endpoint string, err error) {
	addr, err := ParseAddress(url)
	if err != nil {
		return "", "", "", err
	}
	return addr.Host, addr.Port, addr.Endpoint, nil
}

// ParseAddress parses a connector URL into an Address.
// Returns ErrMalformedAddress when the input is empty or the authority
// section has no ":" separating host and port.
func ParseAddress(url string) (Address, error) {
	if url == "" {
		return Address{}, NewAddressError(url, ErrMalformedAddress)
	}

	var addr Address
	rest := url
	if proto, tail, ok := strings.Cut(url, "://"); ok {
		addr.Protocol = proto
		rest = tail
	}

	authority, endpoint, hasPath := strings.Cut(rest, "/")
	host, port, ok := strings.Cut(authority, ":")
	if !ok || host == "" || port == "" {
		return Address{}, NewAddressError(url, ErrMalformedAddress)
	}

	addr.Host = host
	addr.Port = port
	if hasPath {
		addr.Endpoint = endpoint
	}
	return addr, nil
}

// Build assembles a connector URL from host, port and endpoint using the
// http protocol. It is the inverse of Parse: for any valid triple,
// Parse(Build(h, p, e)) returns (h, p, e).
func Build(host, port, endpoint string) string {
	return Address{Protocol: "http", Host: host, Port: port, Endpoint: endpoint}.URL()
}

// URL serializes the address back into `protocol://host:port/endpoint` form.
func (a Address) URL() string {
	var b strings.Builder
	if a.Protocol != "" {
		b.WriteString(a.Protocol)
		b.WriteString("://")
	}
	b.WriteString(a.Host)
	b.WriteString(":")
	b.WriteString(a.Port)
	if a.Endpoint != "" {
		b.WriteString("/")
		b.WriteString(a.Endpoint)
	}
	return b.String()
}

// PortNumber returns the integer value of the port segment.
// Returns ErrPortParse when the segment is not an integer, e.g. an
// uninterpolated "${SERVICE_PORT}" placeholder.
func (a Address) PortNumber() (int, error) {
	n, err := strconv.Atoi(a.Port)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrPortParse, a.Port)
	}
	return n, nil
}

// Rebase prefixes the host segment of url with hostPrefix, preserving the
// protocol, port and endpoint byte-for-byte. Used when namespacing a
// distribution for deployment under a user or tenant identifier.
//
// Example:
//
//	Rebase("http://svc:8080/respond", "user_") // "http://user_svc:8080/respond"
func Rebase(url, hostPrefix string) (string, error) {
	rest := url
	var proto string
	if p, tail, ok := strings.Cut(url, "://"); ok {
		proto = p + "://"
		rest = tail
	}

	authority, path, hasPath := strings.Cut(rest, "/")
	host, port, ok := strings.Cut(authority, ":")
	if !ok || host == "" || port == "" {
		return "", NewAddressError(url, ErrMalformedAddress)
	}

	rebased := proto + hostPrefix + host + ":" + port
	if hasPath {
		rebased += "/" + path
	}
	return rebased, nil
}
