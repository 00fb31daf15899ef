// Command vaultgate wraps an AI-agent runtime with an encrypted credential
// vault, a tarball-at-rest session store, a credential-injection launcher,
// and a mediated tool-call proxy.
package main

import "github.com/vaultgate/vaultgate/cmd/vaultgate/cmd"

func main() {
	cmd.Execute()
}
