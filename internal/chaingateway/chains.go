package chaingateway

// KnownChain is a preset network configuration a caller can hand to
// Configure without typing out an RPC URL by hand.
type KnownChain struct {
	ChainID     int64
	Name        string
	Symbol      string
	RPCURL      string
	ExplorerURL string
	IsTestnet   bool
}

// KnownChains mirrors the small set of public RPC endpoints this wallet
// has been exercised against. It is a convenience preset list, not an
// exhaustive registry — any RPCURL can be passed to Configure directly.
var KnownChains = map[int64]KnownChain{
	1: {
		ChainID: 1, Name: "Ethereum Mainnet", Symbol: "ETH",
		RPCURL: "https://eth.llamarpc.com", ExplorerURL: "https://etherscan.io",
	},
	8453: {
		ChainID: 8453, Name: "Base", Symbol: "ETH",
		RPCURL: "https://mainnet.base.org", ExplorerURL: "https://basescan.org",
	},
	42161: {
		ChainID: 42161, Name: "Arbitrum One", Symbol: "ETH",
		RPCURL: "https://arb1.arbitrum.io/rpc", ExplorerURL: "https://arbiscan.io",
	},
	11155111: {
		ChainID: 11155111, Name: "Sepolia Testnet", Symbol: "ETH",
		RPCURL: "https://ethereum-sepolia-rpc.publicnode.com", ExplorerURL: "https://sepolia.etherscan.io",
		IsTestnet: true,
	},
	84532: {
		ChainID: 84532, Name: "Base Sepolia", Symbol: "ETH",
		RPCURL: "https://sepolia.base.org", ExplorerURL: "https://sepolia.basescan.org",
		IsTestnet: true,
	},
}

// KnownChainByID returns the preset for chainID, if any.
func KnownChainByID(chainID int64) (KnownChain, bool) {
	c, ok := KnownChains[chainID]
	return c, ok
}
