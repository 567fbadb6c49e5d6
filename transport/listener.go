// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Package transport is the UDP external collaborator the ber codec never
// touches directly: a datagram-oriented agent listener and a client, both
// operating on complete pdu.PDU values. Grounded on the request/response
// queue shape of HouzuoGuo-laitos's daemon/dnsd/udp.go and the retry loop
// of soniah-gosnmp's sendOneRequest.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hhorai/gosnmpber/ber"
	"github.com/hhorai/gosnmpber/ber/pdu"
)

// MaxDatagramSize bounds how much of one UDP datagram the listener and
// client will read, matching the "≤ 4 KiB" input ceiling of the codec's
// never-panics robustness property.
const MaxDatagramSize = 4096

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gosnmpber_requests_total",
		Help: "Total number of SNMP requests received by the agent, by PDU type.",
	}, []string{"pdu_type"})
	decodeErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gosnmpber_decode_errors_total",
		Help: "Total number of inbound datagrams that failed to decode.",
	})
	clientTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gosnmpber_client_timeouts_total",
		Help: "Total number of client requests that timed out waiting for a response.",
	})
)

// Handler answers one decoded request PDU with a response PDU.
type Handler func(req pdu.PDU) pdu.PDU

// Listener is a UDP SNMP agent endpoint: one goroutine reads datagrams off
// the socket and dispatches each to its own goroutine (bounded by sem) so
// a slow MIB lookup cannot stall the receive loop.
type Listener struct {
	conn    *net.UDPConn
	handler Handler
	rep     ber.Reporter
	wg      sync.WaitGroup
	sem     chan struct{}
}

// Listen opens a UDP socket at addr ("host:port" or ":port").
func Listen(addr string, handler Handler, rep ber.Reporter) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	return &Listener{
		conn:    conn,
		handler: handler,
		rep:     rep,
		sem:     make(chan struct{}, 64),
	}, nil
}

// Serve reads datagrams until ctx is canceled or the socket errors. It
// blocks until every in-flight handler goroutine has returned.
func (l *Listener) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		l.conn.Close()
	}()

	buf := make([]byte, MaxDatagramSize)
	for {
		n, clientAddr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			l.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		l.sem <- struct{}{}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			defer func() { <-l.sem }()
			l.handleDatagram(datagram, clientAddr)
		}()
	}
}

func (l *Listener) handleDatagram(datagram []byte, clientAddr *net.UDPAddr) {
	req, _, err := pdu.Decode(datagram, l.rep)
	if err != nil {
		decodeErrorsTotal.Inc()
		if l.rep != nil {
			l.rep.Warnf("transport: dropping malformed datagram from %s: %v", clientAddr, err)
		}
		return
	}
	requestsTotal.WithLabelValues(pduTypeLabel(req.Type)).Inc()

	resp := l.handler(req)
	out, err := pdu.Encode(resp, l.rep)
	if err != nil {
		if l.rep != nil {
			l.rep.Warnf("transport: failed to encode response to %s: %v", clientAddr, err)
		}
		return
	}
	if _, err := l.conn.WriteToUDP(out, clientAddr); err != nil && l.rep != nil {
		l.rep.Warnf("transport: failed to write response to %s: %v", clientAddr, err)
	}
}

// Close shuts down the listener's socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Addr returns the socket's local address, useful when Listen was given
// port 0 and the OS chose one.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

func pduTypeLabel(t pdu.Type) string {
	switch t {
	case pdu.GetRequest:
		return "get"
	case pdu.GetNextRequest:
		return "get_next"
	case pdu.GetResponse:
		return "get_response"
	case pdu.SetRequest:
		return "set"
	case pdu.GetBulkRequest:
		return "get_bulk"
	case pdu.TrapV1:
		return "trap_v1"
	case pdu.TrapV2:
		return "trap_v2"
	case pdu.Report:
		return "report"
	default:
		return "unknown"
	}
}
