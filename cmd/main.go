// Copyright 2019 hhorai. All rights reserved.
// Use of this source code is governed by a MIT license that can be found
// in the LICENSE file.

// Command gosnmpber is a minimal SNMP v1/v2c client and read-only agent
// built on top of the ber codec, exposed the way marmos91-dittofs exposes
// its Cobra command tree with Viper-bound persistent flags.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "gosnmpber",
	Short: "A minimal SNMP client and agent built on the gosnmpber BER codec.",
}

func init() {
	rootCmd.PersistentFlags().StringP("community", "c", "public", "SNMP v1/v2c community string")
	rootCmd.PersistentFlags().Int("version", 2, "SNMP version: 1 or 2 for community-based access")
	rootCmd.PersistentFlags().Duration("timeout", 2*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().Int("retries", 3, "number of retries before giving up")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(getCmd, walkCmd, agentCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
