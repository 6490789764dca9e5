// Package coordinator owns the public API (spec §6) and the logic that
// ties the Key Holder, Authority Store, and Chain Gateway together: the
// per-kind signing-strategy resolver, delegation creation, the ERC-4337
// UserOp pipeline, action-driven redemption, and transaction dispatch
// (spec §4.5).
package coordinator

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/ai-wallet-labs/delegation-wallet/internal/authoritystore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/chaingateway"
	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
	"github.com/ai-wallet-labs/delegation-wallet/internal/peer"
)

const namespace = "coordinator"
const recordKey = "state"

// SmartAccountKind is one of the two implementation kinds this wallet
// supports (GLOSSARY: "Hybrid / Stateless7702").
type SmartAccountKind string

const (
	SmartAccountNone          SmartAccountKind = ""
	SmartAccountHybrid        SmartAccountKind = "Hybrid"
	SmartAccountStateless7702 SmartAccountKind = "Stateless7702"
)

// SmartAccount is the Coordinator's configured smart-account identity
// (spec §3, "smart-account configuration (implementation kind, deploy
// salt, address)"). The address is caller-supplied at configuration time;
// this wallet does not itself drive counterfactual-address computation or
// factory deployment, both out of the component's scope per spec §4.5.
type SmartAccount struct {
	Kind       SmartAccountKind
	DeploySalt *big.Int
	Address    common.Address
}

// persistedState is the Coordinator's durable record (spec §6, "Persisted
// layout"): {chainConfig, bundlerConfig, smartAccountConfig}. peerRef and
// externalSignerRef are live connections to in-process capabilities and
// are not serializable; they are reconnected by the host process on
// restart, per spec §3's "(stale-tolerable) references".
type persistedState struct {
	ChainConfig   chaingateway.ChainConfig
	BundlerConfig chaingateway.BundlerConfig
	SmartAccount  *SmartAccount
}

// Coordinator is the wallet's top-level component, holding typed handles
// to the other three and the small amount of configuration state a caller
// supplies through the public API (spec §4.5, §5: "the Coordinator holds
// typed handles... every inter-component call is a suspendable
// message-send").
type Coordinator struct {
	keyHolder      *keyholder.KeyHolder
	authority      *authoritystore.Store
	chain          *chaingateway.Gateway
	store          durablestore.Store
	log            *logrus.Entry

	mu             sync.Mutex
	chainConfig    chaingateway.ChainConfig
	bundlerConfig  chaingateway.BundlerConfig
	smartAccount   *SmartAccount
	externalSigner peer.ExternalSigner
	peerWallet     peer.PeerWallet
}

// New constructs a Coordinator wiring together already-constructed
// component handles. Call Restore after New to rehydrate persisted
// configuration from a prior process.
func New(keyHolder *keyholder.KeyHolder, authority *authoritystore.Store, chain *chaingateway.Gateway, store durablestore.Store, log *logrus.Logger) *Coordinator {
	if log == nil {
		log = logrus.New()
	}
	return &Coordinator{
		keyHolder: keyHolder,
		authority: authority,
		chain:     chain,
		store:     store,
		log:       log.WithField("component", "coordinator"),
	}
}
