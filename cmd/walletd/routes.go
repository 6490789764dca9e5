package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter configures every HTTP route over the Coordinator's public
// API (spec §6).
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = true
	router.Use(cors.New(config))

	api := router.Group("/api")
	{
		api.GET("/health", handler.HealthCheck)

		api.POST("/keyring/initialize", handler.InitializeKeyring)
		api.GET("/accounts", handler.GetAccounts)

		api.POST("/provider", handler.ConfigureProvider)
		api.POST("/bundler", handler.ConfigureBundler)
		api.GET("/capabilities", handler.GetCapabilities)

		api.POST("/smart-account", handler.CreateSmartAccount)
		api.GET("/smart-account", handler.GetSmartAccountAddress)

		delegations := api.Group("/delegations")
		{
			delegations.POST("", handler.CreateDelegation)
			delegations.GET("", handler.ListDelegations)
			delegations.POST("/receive", handler.ReceiveDelegation)
			delegations.POST("/:id/revoke", handler.RevokeDelegation)
			delegations.POST("/:id/redeem", handler.RedeemDelegation)
		}

		api.POST("/transactions/send", handler.SendTransaction)
		api.GET("/userops/:hash/receipt", handler.WaitForUserOpReceipt)

		api.POST("/sign/transaction", handler.SignTransaction)
		api.POST("/sign/typed-data", handler.SignTypedData)
		api.POST("/sign/message", handler.SignMessage)

		api.POST("/peer/handle-signing-request", handler.HandleSigningRequest)
	}

	return router
}
