package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"backend/internal/cart"
	"backend/internal/checkout"
	"backend/internal/config"
	"backend/internal/coupon"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/inventory"
	"backend/internal/middleware"
	"backend/internal/orders"
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
	if err := database.EnsureCouponIndexes(db); err != nil {
		log.Printf("coupon index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	// Checkout works without redis; the limiter degrades to pass-through.
	var redisClient *redis.Client
	if config.AppEnv.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.AppEnv.RedisAddr,
			Password: config.AppEnv.RedisPassword,
		})
		log.Println("redis rate limiting enabled:", config.AppEnv.RedisAddr)
	}

	ledger := inventory.NewLedger(db)
	couponStore := coupon.NewMongoStore(db)
	couponValidator := coupon.NewValidator(couponStore)
	orderStore := orders.NewMongoStore(db)
	assembler := checkout.NewAssembler(ledger, ledger, couponValidator, orderStore)
	carts := cart.NewStore()

	r := gin.Default()

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))

	r.GET("/cart", handlers.GetCart(carts))
	r.POST("/cart/items", handlers.AddCartItem(carts))
	r.DELETE("/cart/items/:productId", handlers.RemoveCartItem(carts))
	r.DELETE("/cart", handlers.ClearCart(carts))

	r.POST("/coupons/validate", handlers.ValidateCoupon(couponValidator))

	r.POST("/orders",
		middleware.RateLimiter(redisClient, config.AppEnv.CheckoutRateLimit, config.AppEnv.CheckoutRateUnit),
		handlers.CreateOrder(assembler, carts, config.AppEnv.JWTSecret),
	)
	r.GET("/orders", middleware.UserAuth(config.AppEnv.JWTSecret), handlers.GetOrders(orderStore))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))
		admin.PUT("/products/:id/stock", handlers.AdjustStock(ledger))

		admin.GET("/coupons", handlers.ListCoupons(couponStore))
		admin.POST("/coupons", handlers.CreateCoupon(couponStore))
		admin.PATCH("/coupons/:id/active", handlers.SetCouponActive(couponStore))
		admin.DELETE("/coupons/:id", handlers.DeleteCoupon(couponStore))

		admin.GET("/orders", handlers.GetAllOrders(orderStore))
		admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus(orderStore))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(orderStore))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
