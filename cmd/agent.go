// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hhorai/gosnmpber/ber"
	"github.com/hhorai/gosnmpber/ber/pdu"
	"github.com/hhorai/gosnmpber/mibtree"
	"github.com/hhorai/gosnmpber/reporter"
	"github.com/hhorai/gosnmpber/transport"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run a minimal read-only SNMP agent serving host interface counters.",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().String("listen", ":1161", "address to listen on")
}

func runAgent(cmd *cobra.Command, args []string) error {
	listen, err := cmd.Flags().GetString("listen")
	if err != nil {
		return err
	}

	log := logrus.StandardLogger()
	rep := reporter.New(log, "agent")

	tree, err := mibtree.NewHostInterfaceTree()
	if err != nil {
		return err
	}

	listener, err := transport.Listen(listen, agentHandler(tree), rep)
	if err != nil {
		return err
	}
	defer listener.Close()
	log.Infof("gosnmpber agent listening on %s", listener.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		cancel()
	}()

	return listener.Serve(ctx)
}

func agentHandler(tree *mibtree.Tree) transport.Handler {
	return func(req pdu.PDU) pdu.PDU {
		vars := make([]pdu.VarBind, 0, len(req.Variables))
		for _, vb := range req.Variables {
			if req.Type == pdu.GetNextRequest {
				nextOid, v, ok := tree.GetNext(vb.OID)
				if !ok {
					vars = append(vars, pdu.VarBind{OID: vb.OID, Value: v})
					continue
				}
				vars = append(vars, pdu.VarBind{OID: nextOid, Value: v})
				continue
			}

			v, ok := tree.Get(vb.OID)
			if !ok {
				v = ber.NoSuchObject()
			}
			vars = append(vars, pdu.VarBind{OID: vb.OID, Value: v})
		}
		return pdu.PDU{Type: pdu.GetResponse, RequestID: req.RequestID, Variables: vars}
	}
}
