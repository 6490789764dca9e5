package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/ai-wallet-labs/delegation-wallet/internal/authoritystore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/chaingateway"
	"github.com/ai-wallet-labs/delegation-wallet/internal/coordinator"
	"github.com/ai-wallet-labs/delegation-wallet/internal/durablestore"
	"github.com/ai-wallet-labs/delegation-wallet/internal/keyholder"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	validateEnv()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logger := logrus.New()
	ctx := context.Background()

	log.Println("🗄️  Opening durable store...")
	store, err := durablestore.OpenSQLite(os.Getenv("DB_PATH"))
	if err != nil {
		log.Fatalf("❌ Failed to open durable store: %v", err)
	}
	log.Println("✓ Durable store ready")

	verifyingContract := common.HexToAddress(os.Getenv("DELEGATION_MANAGER_ADDRESS"))

	log.Println("🛠️  Initializing components...")
	kh := keyholder.New(store, []byte(os.Getenv("MASTER_SECRET")), logger)
	as := authoritystore.New(store, verifyingContract, logger)
	cg := chaingateway.New(logger)
	co := coordinator.New(kh, as, cg, store, logger)

	if err := kh.Restore(ctx); err != nil {
		log.Fatalf("❌ Failed to restore key holder state: %v", err)
	}
	if err := as.Restore(ctx); err != nil {
		log.Fatalf("❌ Failed to restore authority store state: %v", err)
	}
	if err := co.Restore(ctx); err != nil {
		log.Fatalf("❌ Failed to restore coordinator state: %v", err)
	}
	log.Println("✓ All components initialized")

	handler := NewHandler(co)
	router := SetupRouter(handler)

	accountsKnown := len(co.GetAccounts())

	fmt.Printf(`
╔═══════════════════════════════════════╗
║   DELEGATION WALLET DAEMON v1.0       ║
║   Powered by Go + Gin + ERC-4337      ║
║                                       ║
║   🌐 Server: http://localhost:%s     ║
║   🔑 Local accounts: %-18d║
║   🗄️  Durable store: Connected        ║
╚═══════════════════════════════════════╝
`, port, accountsKnown)

	log.Printf("🚀 Server starting on port %s...", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func validateEnv() {
	required := map[string]string{
		"DB_PATH":                    "sqlite database file path",
		"DELEGATION_MANAGER_ADDRESS": "DelegationManager contract address",
		"MASTER_SECRET":              "at-rest encryption master secret",
	}

	missing := []string{}
	for key, desc := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, fmt.Sprintf("%s (%s)", key, desc))
		}
	}

	if len(missing) > 0 {
		log.Println("❌ Missing required environment variables:")
		for _, m := range missing {
			log.Printf("   - %s", m)
		}
		log.Fatal("Please set all required environment variables in .env file")
	}

	log.Println("✓ All required environment variables are set")
}
