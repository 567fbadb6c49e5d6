// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/hhorai/gosnmpber/ber"
	"github.com/hhorai/gosnmpber/ber/pdu"
)

// Client issues SNMP requests over UDP and waits for a matching response.
type Client struct {
	conn    *net.UDPConn
	rep     ber.Reporter
	Timeout time.Duration
	Retries int
}

// Dial connects a Client to addr ("host:port").
func Dial(addr string, rep ber.Reporter) (*Client, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, rep: rep, Timeout: 2 * time.Second, Retries: 3}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error { return c.conn.Close() }

// Do sends req and returns the decoded response PDU, retrying up to
// c.Retries times on timeout or request-id mismatch.
func (c *Client) Do(req pdu.PDU) (pdu.PDU, error) {
	out, err := pdu.Encode(req, c.rep)
	if err != nil {
		return pdu.PDU{}, fmt.Errorf("transport: encode request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if _, err := c.conn.Write(out); err != nil {
			return pdu.PDU{}, fmt.Errorf("transport: write: %w", err)
		}
		if err := c.conn.SetReadDeadline(time.Now().Add(c.Timeout)); err != nil {
			return pdu.PDU{}, fmt.Errorf("transport: set deadline: %w", err)
		}

		buf := make([]byte, MaxDatagramSize)
		n, err := c.conn.Read(buf)
		if err != nil {
			lastErr = err
			clientTimeoutsTotal.Inc()
			continue
		}

		resp, _, err := pdu.Decode(buf[:n], c.rep)
		if err != nil {
			return pdu.PDU{}, fmt.Errorf("transport: decode response: %w", err)
		}
		if resp.RequestID != req.RequestID {
			lastErr = fmt.Errorf("transport: response request-id %d does not match request %d",
				resp.RequestID, req.RequestID)
			continue
		}
		return resp, nil
	}
	return pdu.PDU{}, fmt.Errorf("transport: no response after %d attempts: %w", c.Retries+1, lastErr)
}

// Get issues a GetRequest for the given OIDs.
func (c *Client) Get(requestID int32, oids []ber.Oid) (pdu.PDU, error) {
	return c.Do(requestFor(pdu.GetRequest, requestID, oids))
}

// GetNext issues a GetNextRequest for the given OIDs.
func (c *Client) GetNext(requestID int32, oids []ber.Oid) (pdu.PDU, error) {
	return c.Do(requestFor(pdu.GetNextRequest, requestID, oids))
}

// GetBulk issues a GetBulkRequest with the given non-repeaters and
// max-repetitions parameters.
func (c *Client) GetBulk(requestID, nonRepeaters, maxRepetitions int32, oids []ber.Oid) (pdu.PDU, error) {
	req := requestFor(pdu.GetBulkRequest, requestID, oids)
	req.ErrorStatus = nonRepeaters
	req.ErrorIndex = maxRepetitions
	return c.Do(req)
}

// Set issues a SetRequest assigning values to the given OIDs.
func (c *Client) Set(requestID int32, vars []pdu.VarBind) (pdu.PDU, error) {
	return c.Do(pdu.PDU{Type: pdu.SetRequest, RequestID: requestID, Variables: vars})
}

func requestFor(typ pdu.Type, requestID int32, oids []ber.Oid) pdu.PDU {
	vars := make([]pdu.VarBind, 0, len(oids))
	for _, oid := range oids {
		vars = append(vars, pdu.VarBind{OID: oid, Value: ber.Null()})
	}
	return pdu.PDU{Type: typ, RequestID: requestID, Variables: vars}
}
