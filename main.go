package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/store"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	var rdb *redis.Client
	if config.AppEnv.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: config.AppEnv.RedisAddr})
		log.Println("redis rate limiting enabled at:", config.AppEnv.RedisAddr)
	} else {
		log.Println("REDIS_ADDR not set, rate limiting disabled")
	}

	pricingCfg := checkout.PricingConfig{
		FreeShippingThreshold: config.AppEnv.FreeShippingThreshold,
		FlatShippingFee:       config.AppEnv.FlatShippingFee,
		TaxRate:               config.AppEnv.TaxRate,
	}

	st := store.New(db)
	workflow := checkout.NewWorkflow(st, st, st, st, pricingCfg)

	r := gin.Default()
	r.Use(middleware.Metrics())
	r.Use(middleware.RateLimit(rdb, config.AppEnv.RateLimitMax, config.AppEnv.RateLimitWindow))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	r.GET("/metrics", middleware.MetricsHandler())

	r.POST("/auth/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.AccessTokenTTL))
	r.POST("/auth/login", handlers.Login(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/refresh", handlers.Refresh(
		db,
		config.AppEnv.JWTSecret,
		config.AppEnv.AccessTokenTTL,
		config.AppEnv.RefreshTokenTTL,
	))
	r.POST("/auth/logout", handlers.Logout(db))
	r.GET("/auth/me", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.GetMe(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProductByID(db))
	r.GET("/categories", handlers.GetCategories(db))

	user := r.Group("/")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/cart", handlers.GetCart(db, pricingCfg))
		user.POST("/cart/items", handlers.AddCartItem(db, pricingCfg))
		user.PUT("/cart/items/:productId", handlers.UpdateCartItem(db, pricingCfg))
		user.DELETE("/cart/items/:productId", handlers.RemoveCartItem(db, pricingCfg))

		user.POST("/orders", handlers.PlaceOrder(db, workflow))
		user.GET("/orders", handlers.GetMyOrders(db))
		user.GET("/orders/:id", handlers.GetOrderByID(db))

		user.GET("/user/addresses", handlers.GetUserAddresses(db))
		user.POST("/user/addresses", handlers.CreateUserAddress(db))
		user.PUT("/user/addresses/:id", handlers.UpdateUserAddress(db))
		user.DELETE("/user/addresses/:id", handlers.DeleteUserAddress(db))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/categories", handlers.GetAllCategories(db))
		admin.POST("/categories", handlers.CreateCategory(db))
		admin.PUT("/categories/:id", handlers.UpdateCategory(db))
		admin.DELETE("/categories/:id", handlers.DeleteCategory(db))

		admin.GET("/orders", handlers.GetAllOrders(db))
		admin.PUT("/orders/:id/pay", handlers.MarkOrderPaid(db))
		admin.PUT("/orders/:id/deliver", handlers.MarkOrderDelivered(db))
		admin.PUT("/orders/:id/status", handlers.UpdateOrderStatus(db))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
