// cmd/gateway/cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sensorgate",
	Short: "Sensorgate - IoT data gateway for a Fabric data marketplace",
	Long: `Sensorgate buffers environmental sensor readings, exports each
device-day as an encrypted blob to an IPFS cluster, and anchors the content
pointer plus its symmetric key on a Hyperledger Fabric channel.

Other organizations discover assets through the HTTP surface, bid on them,
and receive the decryption key when a bid is accepted.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
