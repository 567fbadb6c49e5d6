// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hhorai/gosnmpber/ber"
	"github.com/hhorai/gosnmpber/ber/pdu"
	"github.com/hhorai/gosnmpber/transport"
)

var getCmd = &cobra.Command{
	Use:   "get HOST:PORT OID [OID...]",
	Short: "Issue a GetRequest for one or more OIDs.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGet,
}

var walkCmd = &cobra.Command{
	Use:   "walk HOST:PORT OID",
	Short: "Walk the MIB tree rooted at OID using repeated GetNextRequests.",
	Args:  cobra.ExactArgs(2),
	RunE:  runWalk,
}

func runGet(cmd *cobra.Command, args []string) error {
	oids, err := parseOids(args[1:])
	if err != nil {
		return err
	}

	client, err := dialFromFlags(args[0])
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Get(1, oids)
	if err != nil {
		return err
	}
	printVarbinds(resp.Variables)
	return nil
}

func runWalk(cmd *cobra.Command, args []string) error {
	root, err := parseOid(args[1])
	if err != nil {
		return err
	}

	client, err := dialFromFlags(args[0])
	if err != nil {
		return err
	}
	defer client.Close()

	current := root
	requestID := int32(1)
	for {
		resp, err := client.GetNext(requestID, []ber.Oid{current})
		if err != nil {
			return err
		}
		if len(resp.Variables) != 1 {
			return fmt.Errorf("gosnmpber: unexpected varbind count %d in GetNextRequest response", len(resp.Variables))
		}

		vb := resp.Variables[0]
		if vb.Value.Kind == ber.KindEndOfMibView || !hasPrefix(vb.OID, root) {
			return nil
		}
		printVarbinds([]pdu.VarBind{vb})
		current = vb.OID
		requestID++
	}
}

func dialFromFlags(addr string) (*transport.Client, error) {
	client, err := transport.Dial(addr, nil)
	if err != nil {
		return nil, err
	}
	client.Timeout = viper.GetDuration("timeout")
	client.Retries = viper.GetInt("retries")
	return client, nil
}

func hasPrefix(oid, prefix ber.Oid) bool {
	if len(oid) < len(prefix) {
		return false
	}
	for i := range prefix {
		if oid[i] != prefix[i] {
			return false
		}
	}
	return true
}

func parseOids(args []string) ([]ber.Oid, error) {
	oids := make([]ber.Oid, 0, len(args))
	for _, a := range args {
		oid, err := parseOid(a)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

func parseOid(s string) (ber.Oid, error) {
	parts := strings.Split(s, ".")
	arcs := make([]uint32, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("gosnmpber: invalid OID %q: %w", s, err)
		}
		arcs = append(arcs, uint32(n))
	}
	return ber.NewOid(arcs)
}

func printVarbinds(vars []pdu.VarBind) {
	for _, vb := range vars {
		fmt.Printf("%s = %s\n", vb.OID.String(), formatValue(vb.Value))
	}
}

func formatValue(v ber.Value) string {
	switch v.Kind {
	case ber.KindOctetString, ber.KindIA5String:
		return fmt.Sprintf("STRING: %s", string(v.Bytes))
	case ber.KindInteger:
		return fmt.Sprintf("INTEGER: %d", v.Int)
	case ber.KindOid:
		return fmt.Sprintf("OID: %s", v.Oid.String())
	case ber.KindCounter32:
		return fmt.Sprintf("Counter32: %d", v.Uint32)
	case ber.KindGauge32:
		return fmt.Sprintf("Gauge32: %d", v.Uint32)
	case ber.KindTimeTicks:
		return fmt.Sprintf("Timeticks: %d", v.Uint32)
	case ber.KindCounter64:
		return fmt.Sprintf("Counter64: %d", v.Uint64)
	case ber.KindIPAddress:
		return fmt.Sprintf("IpAddress: %d.%d.%d.%d",
			byte(v.Uint32>>24), byte(v.Uint32>>16), byte(v.Uint32>>8), byte(v.Uint32))
	case ber.KindNull:
		return "NULL"
	case ber.KindNoSuchObject:
		return "No Such Object"
	case ber.KindEndOfMibView:
		return "End of MIB View"
	default:
		return fmt.Sprintf("kind(%d)", v.Kind)
	}
}
