package solana

// Environment is the RPC endpoint of a public Solana cluster
type Environment string

const (
	EnvironmentDev  Environment = "https://api.devnet.solana.com"
	EnvironmentTest Environment = "https://api.testnet.solana.com"
	EnvironmentProd Environment = "https://api.mainnet-beta.solana.com"
)

// ClusterEnvironment resolves a cluster moniker to its public endpoint. Any
// other value is taken to be an endpoint already.
func ClusterEnvironment(value string) Environment {
	switch value {
	case "devnet":
		return EnvironmentDev
	case "testnet":
		return EnvironmentTest
	case "mainnet", "mainnet-beta":
		return EnvironmentProd
	}
	return Environment(value)
}
